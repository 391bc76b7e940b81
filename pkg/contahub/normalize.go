package contahub

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Record is one normalized row keyed by destination column name.
type Record map[string]interface{}

// DecodeList extracts the row list from a raw report body. Upstream wraps
// rows in {"list":[...]} but a few legacy captures are bare arrays. An
// object without a list, or with a null one, is a valid no-data response
// and yields zero records.
func DecodeList(raw []byte) ([]map[string]interface{}, error) {
	var envelope struct {
		List []map[string]interface{} `json:"list"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil {
		return envelope.List, nil
	}

	var bare []map[string]interface{}
	if err := json.Unmarshal(raw, &bare); err == nil {
		return bare, nil
	}

	return nil, fmt.Errorf("payload is neither a list envelope nor an array")
}

// Normalize converts raw rows of the given report type into destination
// records. fallbackDate, when non-empty, supplies the governing date for
// rows that arrive without one (direct fetches carry the request date;
// stored payloads do not get a fallback).
func Normalize(rt ReportType, list []map[string]interface{}, fallbackDate string) ([]Record, error) {
	switch rt {
	case ReportAnalitico:
		return normalizeAnalitico(list, fallbackDate), nil
	case ReportFatPorHora:
		return normalizeFatPorHora(list, fallbackDate), nil
	case ReportPagamentos:
		return normalizePagamentos(list, fallbackDate), nil
	case ReportPeriodo:
		return normalizePeriodo(list, fallbackDate), nil
	case ReportTempo:
		return normalizeTempo(list, fallbackDate), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedReport, rt)
	}
}

func normalizeAnalitico(list []map[string]interface{}, fallbackDate string) []Record {
	out := make([]Record, 0, len(list))
	for _, item := range list {
		data := dateOrNil(item["trn_dtgerencial"], fallbackDate)
		out = append(out, Record{
			"vd_mesadesc":    str(item["vd_mesadesc"]),
			"vd_localizacao": str(item["vd_localizacao"]),
			"itm":            intOrNil(item["itm"]),
			"trn":            intOrNil(item["trn"]),
			"trn_desc":       str(item["trn_desc"]),
			"prefixo":        str(item["prefixo"]),
			"tipo":           str(item["tipo"]),
			"tipovenda":      str(item["tipovenda"]),
			"ano":            intOrNil(item["ano"]),
			"mes":            monthOrNil(item["mes"], fallbackDate),
			"trn_dtgerencial": data,
			"usr_lancou":     str(item["usr_lancou"]),
			"prd":            str(item["prd"]),
			"prd_desc":       str(item["prd_desc"]),
			"grp_desc":       str(item["grp_desc"]),
			"loc_desc":       str(item["loc_desc"]),
			"qtd":            safeFloat(item["qtd"]),
			"desconto":       safeFloat(item["desconto"]),
			"valorfinal":     safeFloat(item["valorfinal"]),
			"custo":          safeFloat(item["custo"]),
			"itm_obs":        str(item["itm_obs"]),
			"comandaorigem":  str(item["comandaorigem"]),
			"itemorigem":     str(item["itemorigem"]),
		})
	}
	return out
}

func normalizeFatPorHora(list []map[string]interface{}, fallbackDate string) []Record {
	out := make([]Record, 0, len(list))
	for _, item := range list {
		out = append(out, Record{
			"vd_dtgerencial": dateOrNil(item["vd_dtgerencial"], fallbackDate),
			"dds":            intOrNil(item["dds"]),
			"dia":            str(item["dia"]),
			"hora":           extractHour(item["hora"]),
			"qtd":            safeFloat(item["qtd"]),
			"valor":          safeFloat(item["$valor"]),
		})
	}
	return out
}

func normalizePagamentos(list []map[string]interface{}, fallbackDate string) []Record {
	out := make([]Record, 0, len(list))
	for _, item := range list {
		out = append(out, Record{
			"vd":             strOr(item["vd"], item["id"]),
			"trn":            strOr(item["trn"], item["id"]),
			"dt_gerencial":   dateOrNil(item["dt_gerencial"], fallbackDate),
			"hr_lancamento":  str(item["hr_lancamento"]),
			"hr_transacao":   str(item["hr_transacao"]),
			"dt_transacao":   dateOrNil(item["dt_transacao"], ""),
			"mesa":           str(item["mesa"]),
			"cli":            safeInt(item["cli"]),
			"cliente":        strOr(item["cliente"], item["descricao"]),
			"vr_pagamentos":  safeFloat(coalesce(item["$vr_pagamentos"], item["valor"])),
			"pag":            str(item["pag"]),
			"valor":          safeFloat(coalesce(item["$valor"], item["valor"])),
			"taxa":           safeFloat(item["$taxa"]),
			"perc":           safeFloat(item["$perc"]),
			"liquido":        safeFloat(coalesce(item["$liquido"], item["valor"])),
			"tipo":           str(item["tipo"]),
			"meio":           strOr(item["meio"], item["tipo"]),
			"cartao":         str(item["cartao"]),
			"autorizacao":    str(item["autorizacao"]),
			"dt_credito":     dateOrNil(item["dt_credito"], ""),
			"usr_abriu":      str(item["usr_abriu"]),
			"usr_lancou":     str(item["usr_lancou"]),
			"usr_aceitou":    str(item["usr_aceitou"]),
			"motivodesconto": str(item["motivodesconto"]),
		})
	}
	return out
}

func normalizePeriodo(list []map[string]interface{}, fallbackDate string) []Record {
	out := make([]Record, 0, len(list))
	for _, item := range list {
		data := dateOrNil(item["dt_gerencial"], fallbackDate)

		semana := 1
		if d, ok := data.(string); ok {
			semana = weekOfYear(d)
		}

		out = append(out, Record{
			"dt_gerencial":   data,
			"tipovenda":      str(item["tipovenda"]),
			"vd_mesadesc":    str(item["vd_mesadesc"]),
			"vd_localizacao": str(item["vd_localizacao"]),
			"cht_nome":       str(item["cht_nome"]),
			"cli_nome":       str(item["cli_nome"]),
			"cli_dtnasc":     birthDate(item["cli_dtnasc"]),
			"cli_email":      str(item["cli_email"]),
			"cli_fone":       str(item["cli_fone"]),
			"usr_abriu":      str(item["usr_abriu"]),
			"pessoas":        safeInt(item["pessoas"]),
			"qtd_itens":      safeInt(item["qtd_itens"]),
			"vr_pagamentos":  safeFloat(item["$vr_pagamentos"]),
			"vr_produtos":    safeFloat(item["$vr_produtos"]),
			"vr_repique":     safeFloat(item["$vr_repique"]),
			"vr_couvert":     safeFloat(item["$vr_couvert"]),
			"vr_desconto":    safeFloat(item["$vr_desconto"]),
			"motivo":         str(item["motivo"]),
			"dt_contabil":    dateOrNil(item["dt_contabil"], ""),
			"ultimo_pedido":  str(item["ultimo_pedido"]),
			"vd_dtcontabil":  dateOrNil(item["vd_dtcontabil"], ""),
			"semana":         semana,
		})
	}
	return out
}

func normalizeTempo(list []map[string]interface{}, fallbackDate string) []Record {
	out := make([]Record, 0, len(list))
	for _, item := range list {
		data := dateOrNil(item["dia"], fallbackDate)
		out = append(out, Record{
			"data":               data,
			"grp_desc":           str(item["grp_desc"]),
			"prd_desc":           str(item["prd_desc"]),
			"vd_mesadesc":        str(item["vd_mesadesc"]),
			"vd_localizacao":     str(item["vd_localizacao"]),
			"itm":                str(item["itm"]),
			"t0_lancamento":      cleanTimestamp(str(item["t0-lancamento"])),
			"t1_prodini":         cleanTimestamp(str(item["t1-prodini"])),
			"t2_prodfim":         cleanTimestamp(str(item["t2-prodfim"])),
			"t3_entrega":         cleanTimestamp(str(item["t3-entrega"])),
			"t0_t1":              intOrNil(item["t0-t1"]),
			"t0_t2":              intOrNil(item["t0-t2"]),
			"t0_t3":              intOrNil(item["t0-t3"]),
			"t1_t2":              intOrNil(item["t1-t2"]),
			"t1_t3":              intOrNil(item["t1-t3"]),
			"t2_t3":              intOrNil(item["t2-t3"]),
			"prd":                intOrNil(item["prd"]),
			"prd_idexterno":      str(item["prd"]),
			"loc_desc":           str(item["loc_desc"]),
			"usr_abriu":          str(item["usr_abriu"]),
			"usr_lancou":         str(item["usr_lancou"]),
			"usr_produziu":       str(item["usr_produziu"]),
			"usr_entregou":       str(item["usr_entregou"]),
			"usr_transfcancelou": str(item["usr_transfcancelou"]),
			"prefixo":            str(item["prefixo"]),
			"tipovenda":          str(item["tipovenda"]),
			"ano":                intOrNil(item["ano"]),
			"mes":                monthOrNil(item["mes"], fallbackDate),
			"dia":                data,
			"dds":                intOrNil(item["dds"]),
			"diadasemana":        str(item["diadasemana"]),
			"hora":               str(item["hora"]),
			"itm_qtd":            safeInt(item["itm_qtd"]),
		})
	}
	return out
}

// str renders any scalar as its string form, with nil mapping to "".
// Floats that are whole numbers print without a fraction so numeric ids
// survive the JSON float round trip.
func str(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return fmt.Sprintf("%v", t)
	}
}

// strOr returns the first value whose string form is non-empty.
func strOr(v, alt interface{}) string {
	if s := str(v); s != "" {
		return s
	}
	return str(alt)
}

// coalesce returns the first usable value.
func coalesce(v, alt interface{}) interface{} {
	if v == nil {
		return alt
	}
	if s, ok := v.(string); ok && (s == "" || s == "null") {
		return alt
	}
	return v
}

// safeFloat parses a numeric value defensively. nil, "" and the literal
// string "null" all collapse to zero, as does anything unparseable.
func safeFloat(v interface{}) float64 {
	switch t := v.(type) {
	case nil:
		return 0.0
	case float64:
		return t
	case int:
		return float64(t)
	case string:
		if t == "" || t == "null" {
			return 0.0
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0.0
		}
		return f
	default:
		return 0.0
	}
}

// safeInt parses as float first then truncates, so "12.7" becomes 12.
func safeInt(v interface{}) int {
	return int(safeFloat(v))
}

// intOrNil returns nil instead of zero so absent counters stay NULL.
func intOrNil(v interface{}) interface{} {
	n := safeInt(v)
	if n == 0 {
		return nil
	}
	return n
}

// extractHour pulls the hour out of "HH:MM" or a bare number.
func extractHour(v interface{}) int {
	s := str(v)
	if s == "" {
		return 0
	}
	if i := strings.Index(s, ":"); i >= 0 {
		s = s[:i]
	}
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0
	}
	return n
}

// datePart truncates an ISO timestamp to its calendar date.
func datePart(s string) string {
	if i := strings.Index(s, "T"); i >= 0 {
		return s[:i]
	}
	return s
}

// dateOrNil extracts a date, falling back to fallbackDate and then nil.
func dateOrNil(v interface{}, fallbackDate string) interface{} {
	if s := datePart(str(v)); s != "" {
		return s
	}
	if fallbackDate != "" {
		return fallbackDate
	}
	return nil
}

// birthDate filters the upstream sentinel 0001-01-01 meaning "not set".
func birthDate(v interface{}) interface{} {
	s := datePart(str(v))
	if s == "" || s == "0001-01-01" {
		return nil
	}
	return s
}

// monthOrNil extracts the month number from "YYYY-MM", a bare number, or
// the fallback date.
func monthOrNil(v interface{}, fallbackDate string) interface{} {
	s := str(v)
	if s == "" && fallbackDate != "" {
		s = fallbackDate
	}
	if s == "" {
		return nil
	}
	if parts := strings.Split(s, "-"); len(parts) >= 2 {
		s = parts[1]
	}
	n, err := strconv.Atoi(s)
	if err != nil || n == 0 {
		return nil
	}
	return n
}

// weekOfYear computes the legacy week number for a YYYY-MM-DD date:
// floor((daysSinceJan1 + weekday(Jan1) + 1) / 7) + 1. It is not ISO 8601
// and is kept as is so historical rows stay comparable.
func weekOfYear(date string) int {
	dt, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 1
	}
	jan1 := time.Date(dt.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	days := int(dt.Sub(jan1).Hours() / 24)
	return (days+int(jan1.Weekday())+1)/7 + 1
}

var timestampPattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}$`)

var timezoneSuffixes = []string{"-0300", "+0000", "-03:00", "+00:00", "Z"}

// cleanTimestamp converts an upstream ISO timestamp like
// "2025-02-01T18:48:53-0300" to "2025-02-01 18:48:53". Anything that does
// not clean to that exact shape becomes nil rather than a malformed write.
func cleanTimestamp(s string) interface{} {
	if s == "" || s == "null" || s == "undefined" {
		return nil
	}
	clean := strings.Replace(s, "T", " ", 1)
	for _, suffix := range timezoneSuffixes {
		clean = strings.TrimSuffix(clean, suffix)
	}
	if !timestampPattern.MatchString(clean) {
		return nil
	}
	if _, err := time.Parse("2006-01-02 15:04:05", clean); err != nil {
		return nil
	}
	return clean
}
