package contahub

import (
	"time"

	"gorm.io/datatypes"
)

// RawPayload is one captured upstream response for a (report type,
// establishment, date) tuple. The capture step writes it with
// processed=false; the processor flips the flag exactly once.
type RawPayload struct {
	ID          uint           `json:"id" gorm:"primaryKey;column:id"`
	BarID       int            `json:"bar_id" gorm:"column:bar_id;uniqueIndex:idx_raw_unit"`
	DataType    string         `json:"data_type" gorm:"column:data_type;uniqueIndex:idx_raw_unit"`
	DataDate    string         `json:"data_date" gorm:"column:data_date;type:date;uniqueIndex:idx_raw_unit"`
	RawJSON     datatypes.JSON `json:"raw_json" gorm:"column:raw_json"`
	RecordCount int            `json:"record_count" gorm:"column:record_count"`
	Processed   bool           `json:"processed" gorm:"column:processed"`
	ProcessedAt *time.Time     `json:"processed_at,omitempty" gorm:"column:processed_at"`
	CreatedAt   time.Time      `json:"created_at" gorm:"column:created_at"`
}

func (RawPayload) TableName() string {
	return "contahub_raw_data"
}

// AnaliticoRecord is one normalized sales line. No natural key upstream;
// duplicates are mitigated only by the idempotency key.
type AnaliticoRecord struct {
	ID             uint    `gorm:"primaryKey;column:id"`
	BarID          int     `gorm:"column:bar_id"`
	VdMesaDesc     string  `gorm:"column:vd_mesadesc"`
	VdLocalizacao  string  `gorm:"column:vd_localizacao"`
	Itm            *int    `gorm:"column:itm"`
	Trn            *int    `gorm:"column:trn"`
	TrnDesc        string  `gorm:"column:trn_desc"`
	Prefixo        string  `gorm:"column:prefixo"`
	Tipo           string  `gorm:"column:tipo"`
	TipoVenda      string  `gorm:"column:tipovenda"`
	Ano            *int    `gorm:"column:ano"`
	Mes            *int    `gorm:"column:mes"`
	TrnDtGerencial *string `gorm:"column:trn_dtgerencial;type:date"`
	UsrLancou      string  `gorm:"column:usr_lancou"`
	Prd            string  `gorm:"column:prd"`
	PrdDesc        string  `gorm:"column:prd_desc"`
	GrpDesc        string  `gorm:"column:grp_desc"`
	LocDesc        string  `gorm:"column:loc_desc"`
	Qtd            float64 `gorm:"column:qtd"`
	Desconto       float64 `gorm:"column:desconto"`
	ValorFinal     float64 `gorm:"column:valorfinal"`
	Custo          float64 `gorm:"column:custo"`
	ItmObs         string  `gorm:"column:itm_obs"`
	ComandaOrigem  string  `gorm:"column:comandaorigem"`
	ItemOrigem     string  `gorm:"column:itemorigem"`
	IdempotencyKey string  `gorm:"column:idempotency_key"`
}

func (AnaliticoRecord) TableName() string {
	return "contahub_analitico"
}

// FatPorHoraRecord is one hourly revenue bucket.
type FatPorHoraRecord struct {
	ID             uint    `gorm:"primaryKey;column:id"`
	BarID          int     `gorm:"column:bar_id"`
	VdDtGerencial  *string `gorm:"column:vd_dtgerencial;type:date"`
	Dds            *int    `gorm:"column:dds"`
	Dia            string  `gorm:"column:dia"`
	Hora           int     `gorm:"column:hora"`
	Qtd            float64 `gorm:"column:qtd"`
	Valor          float64 `gorm:"column:valor"`
	IdempotencyKey string  `gorm:"column:idempotency_key"`
}

func (FatPorHoraRecord) TableName() string {
	return "contahub_fatporhora"
}

// PagamentoRecord is one payment line. The store enforces uniqueness on the
// transaction natural key, so replays surface as conflicts instead of rows.
type PagamentoRecord struct {
	ID             uint    `gorm:"primaryKey;column:id"`
	BarID          int     `gorm:"column:bar_id;uniqueIndex:idx_pagamentos_natural"`
	Vd             string  `gorm:"column:vd;uniqueIndex:idx_pagamentos_natural"`
	Trn            string  `gorm:"column:trn;uniqueIndex:idx_pagamentos_natural"`
	Pag            string  `gorm:"column:pag;uniqueIndex:idx_pagamentos_natural"`
	DtGerencial    *string `gorm:"column:dt_gerencial;type:date"`
	HrLancamento   string  `gorm:"column:hr_lancamento"`
	HrTransacao    string  `gorm:"column:hr_transacao"`
	DtTransacao    *string `gorm:"column:dt_transacao;type:date"`
	Mesa           string  `gorm:"column:mesa"`
	Cli            int     `gorm:"column:cli"`
	Cliente        string  `gorm:"column:cliente"`
	VrPagamentos   float64 `gorm:"column:vr_pagamentos"`
	Valor          float64 `gorm:"column:valor"`
	Taxa           float64 `gorm:"column:taxa"`
	Perc           float64 `gorm:"column:perc"`
	Liquido        float64 `gorm:"column:liquido"`
	Tipo           string  `gorm:"column:tipo"`
	Meio           string  `gorm:"column:meio"`
	Cartao         string  `gorm:"column:cartao"`
	Autorizacao    string  `gorm:"column:autorizacao"`
	DtCredito      *string `gorm:"column:dt_credito;type:date"`
	UsrAbriu       string  `gorm:"column:usr_abriu"`
	UsrLancou      string  `gorm:"column:usr_lancou"`
	UsrAceitou     string  `gorm:"column:usr_aceitou"`
	MotivoDesconto string  `gorm:"column:motivodesconto"`
	IdempotencyKey string  `gorm:"column:idempotency_key"`
}

func (PagamentoRecord) TableName() string {
	return "contahub_pagamentos"
}

// PeriodoRecord is one session/period summary row.
type PeriodoRecord struct {
	ID             uint    `gorm:"primaryKey;column:id"`
	BarID          int     `gorm:"column:bar_id"`
	DtGerencial    *string `gorm:"column:dt_gerencial;type:date"`
	TipoVenda      string  `gorm:"column:tipovenda"`
	VdMesaDesc     string  `gorm:"column:vd_mesadesc"`
	VdLocalizacao  string  `gorm:"column:vd_localizacao"`
	ChtNome        string  `gorm:"column:cht_nome"`
	CliNome        string  `gorm:"column:cli_nome"`
	CliDtNasc      *string `gorm:"column:cli_dtnasc;type:date"`
	CliEmail       string  `gorm:"column:cli_email"`
	CliFone        string  `gorm:"column:cli_fone"`
	UsrAbriu       string  `gorm:"column:usr_abriu"`
	Pessoas        int     `gorm:"column:pessoas"`
	QtdItens       int     `gorm:"column:qtd_itens"`
	VrPagamentos   float64 `gorm:"column:vr_pagamentos"`
	VrProdutos     float64 `gorm:"column:vr_produtos"`
	VrRepique      float64 `gorm:"column:vr_repique"`
	VrCouvert      float64 `gorm:"column:vr_couvert"`
	VrDesconto     float64 `gorm:"column:vr_desconto"`
	Motivo         string  `gorm:"column:motivo"`
	DtContabil     *string `gorm:"column:dt_contabil;type:date"`
	UltimoPedido   string  `gorm:"column:ultimo_pedido"`
	VdDtContabil   *string `gorm:"column:vd_dtcontabil;type:date"`
	Semana         int     `gorm:"column:semana"`
	IdempotencyKey string  `gorm:"column:idempotency_key"`
}

func (PeriodoRecord) TableName() string {
	return "contahub_periodo"
}

// TempoRecord is one per-item production timing row.
type TempoRecord struct {
	ID                uint    `gorm:"primaryKey;column:id"`
	BarID             int     `gorm:"column:bar_id"`
	Data              *string `gorm:"column:data;type:date"`
	GrpDesc           string  `gorm:"column:grp_desc"`
	PrdDesc           string  `gorm:"column:prd_desc"`
	VdMesaDesc        string  `gorm:"column:vd_mesadesc"`
	VdLocalizacao     string  `gorm:"column:vd_localizacao"`
	Itm               string  `gorm:"column:itm"`
	T0Lancamento      *string `gorm:"column:t0_lancamento;type:timestamp"`
	T1ProdIni         *string `gorm:"column:t1_prodini;type:timestamp"`
	T2ProdFim         *string `gorm:"column:t2_prodfim;type:timestamp"`
	T3Entrega         *string `gorm:"column:t3_entrega;type:timestamp"`
	T0T1              *int    `gorm:"column:t0_t1"`
	T0T2              *int    `gorm:"column:t0_t2"`
	T0T3              *int    `gorm:"column:t0_t3"`
	T1T2              *int    `gorm:"column:t1_t2"`
	T1T3              *int    `gorm:"column:t1_t3"`
	T2T3              *int    `gorm:"column:t2_t3"`
	Prd               *int    `gorm:"column:prd"`
	PrdIDExterno      string  `gorm:"column:prd_idexterno"`
	LocDesc           string  `gorm:"column:loc_desc"`
	UsrAbriu          string  `gorm:"column:usr_abriu"`
	UsrLancou         string  `gorm:"column:usr_lancou"`
	UsrProduziu       string  `gorm:"column:usr_produziu"`
	UsrEntregou       string  `gorm:"column:usr_entregou"`
	UsrTransfCancelou string  `gorm:"column:usr_transfcancelou"`
	Prefixo           string  `gorm:"column:prefixo"`
	TipoVenda         string  `gorm:"column:tipovenda"`
	Ano               *int    `gorm:"column:ano"`
	Mes               *int    `gorm:"column:mes"`
	Dia               *string `gorm:"column:dia;type:date"`
	Dds               *int    `gorm:"column:dds"`
	DiaDaSemana       string  `gorm:"column:diadasemana"`
	Hora              string  `gorm:"column:hora"`
	ItmQtd            int     `gorm:"column:itm_qtd"`
	IdempotencyKey    string  `gorm:"column:idempotency_key"`
}

func (TempoRecord) TableName() string {
	return "contahub_tempo"
}

// Models lists every destination model for migration, keyed by table.
func Models() []interface{} {
	return []interface{}{
		&RawPayload{},
		&AnaliticoRecord{},
		&FatPorHoraRecord{},
		&PagamentoRecord{},
		&PeriodoRecord{},
		&TempoRecord{},
	}
}
