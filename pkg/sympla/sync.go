package sympla

import (
	"context"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/zykor/platform/pkg/backfill"
	"github.com/zykor/platform/pkg/common/logger"
)

// Totals accumulates counts across one ticketing sync.
type Totals struct {
	Dates        int
	Events       int
	Participants int
	Orders       int
	Errors       int
}

// Syncer pulls events with their participants and orders for a date range
// and upserts them by upstream id.
type Syncer struct {
	client     *Client
	db         *gorm.DB
	barID      int
	nameFilter string
	log        *logrus.Entry
}

// NewSyncer builds a Syncer. nameFilter, when non-empty, restricts the
// sync to events whose name contains it case-insensitively; the house
// shares its ticketing account with other venues.
func NewSyncer(client *Client, db *gorm.DB, barID int, nameFilter string) *Syncer {
	return &Syncer{
		client:     client,
		db:         db,
		barID:      barID,
		nameFilter: strings.ToLower(nameFilter),
		log:        logger.ForComponent("sympla-sync"),
	}
}

// Sync walks [start, end] day by day. Failures are isolated per date.
func (s *Syncer) Sync(ctx context.Context, start, end string) (Totals, error) {
	var totals Totals

	dates, err := backfill.DateRange(start, end)
	if err != nil {
		return totals, err
	}

	for _, date := range dates {
		totals.Dates++
		if err := s.syncDate(ctx, date, &totals); err != nil {
			if ctx.Err() != nil {
				return totals, ctx.Err()
			}
			totals.Errors++
			s.log.WithFields(logrus.Fields{"date": date, "error": err.Error()}).Error("Ticketing sync failed for date, continuing")
		}
	}

	s.log.WithFields(logrus.Fields{
		"dates":        totals.Dates,
		"events":       totals.Events,
		"participants": totals.Participants,
		"orders":       totals.Orders,
		"errors":       totals.Errors,
	}).Info("Ticketing sync complete")

	return totals, nil
}

func (s *Syncer) syncDate(ctx context.Context, date string, totals *Totals) error {
	events, err := s.client.ListEvents(ctx, date)
	if err != nil {
		return err
	}

	events = s.filterEvents(events, date)
	if len(events) == 0 {
		return nil
	}

	if err := s.upsertEvents(ctx, events); err != nil {
		return err
	}
	totals.Events += len(events)

	for _, event := range events {
		participants, err := s.client.ListParticipants(ctx, event.ID)
		if err != nil {
			return err
		}
		if err := s.upsertParticipants(ctx, participants); err != nil {
			return err
		}
		totals.Participants += len(participants)

		orders, err := s.client.ListOrders(ctx, event.ID)
		if err != nil {
			return err
		}
		if err := s.upsertOrders(ctx, orders); err != nil {
			return err
		}
		totals.Orders += len(orders)
	}

	return nil
}

// filterEvents keeps events starting on the given calendar day, then
// applies the venue name filter.
func (s *Syncer) filterEvents(events []Event, date string) []Event {
	var kept []Event
	for _, event := range events {
		if !strings.HasPrefix(event.StartDate, date) {
			continue
		}
		if s.nameFilter != "" && !strings.Contains(strings.ToLower(event.Name), s.nameFilter) {
			continue
		}
		kept = append(kept, event)
	}
	return kept
}

func (s *Syncer) upsertEvents(ctx context.Context, events []Event) error {
	records := make([]EventRecord, len(events))
	for i, event := range events {
		record := EventRecord{
			BarID:       s.barID,
			EventoID:    event.ID,
			ReferenceID: event.ReferenceID,
			Nome:        event.Name,
			DataInicio:  event.StartDate,
			DataFim:     event.EndDate,
			Publicado:   event.Published == 1,
			ImagemURL:   event.Image,
			EventoURL:   event.URL,
			Endereco:    event.Address,
			Host:        event.Host,
		}
		if event.CategoryPrim != nil {
			record.CategoriaPrim = event.CategoryPrim.Name
		}
		if event.CategorySec != nil {
			record.CategoriaSec = event.CategorySec.Name
		}
		records[i] = record
	}

	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "evento_sympla_id"}},
		UpdateAll: true,
	}).Create(&records).Error
}

func (s *Syncer) upsertParticipants(ctx context.Context, participants []Participant) error {
	if len(participants) == 0 {
		return nil
	}

	records := make([]ParticipantRecord, len(participants))
	for i, p := range participants {
		record := ParticipantRecord{
			BarID:          s.barID,
			ParticipanteID: p.ID,
			EventoID:       p.EventID,
			PedidoID:       p.OrderID,
			NomeCompleto:   strings.TrimSpace(p.FirstName + " " + p.LastName),
			Email:          p.Email,
			TipoIngresso:   p.TicketName,
			NumeroTicket:   p.TicketNumber,
			StatusPedido:   p.OrderStatus,
			DadosTicket: map[string]interface{}{
				"ticket_created_at":  p.TicketCreatedAt,
				"ticket_updated_at":  p.TicketUpdatedAt,
				"ticket_num_qr_code": p.TicketQRCode,
			},
		}
		if p.Checkin != nil {
			record.FezCheckin = p.Checkin.CheckIn
			if p.Checkin.CheckInDate != "" {
				checkin := p.Checkin.CheckInDate
				record.DataCheckin = &checkin
			}
		}
		records[i] = record
	}

	return batchUpsert(ctx, s.db, records, []clause.Column{{Name: "participante_sympla_id"}})
}

func (s *Syncer) upsertOrders(ctx context.Context, orders []Order) error {
	if len(orders) == 0 {
		return nil
	}

	records := make([]OrderRecord, len(orders))
	for i, o := range orders {
		record := OrderRecord{
			BarID:          s.barID,
			PedidoID:       o.ID,
			EventoID:       o.EventID,
			StatusPedido:   o.OrderStatus,
			TipoTransacao:  o.TransactionType,
			NomeComprador:  strings.TrimSpace(o.BuyerFirstName + " " + o.BuyerLastName),
			EmailComprador: o.BuyerEmail,
			ValorBruto:     o.TotalSalePrice,
			ValorLiquido:   o.TotalNetValue,
			TaxaSympla:     o.TotalSalePrice - o.TotalNetValue,
			DadosUTM:       o.UTM,
			DadosComprador: map[string]interface{}{
				"buyer_first_name": o.BuyerFirstName,
				"buyer_last_name":  o.BuyerLastName,
				"buyer_email":      o.BuyerEmail,
				"updated_date":     o.UpdatedDate,
				"approved_date":    o.ApprovedDate,
			},
		}
		if o.OrderDate != "" {
			orderDate := o.OrderDate
			record.DataPedido = &orderDate
		}
		records[i] = record
	}

	return batchUpsert(ctx, s.db, records, []clause.Column{
		{Name: "pedido_sympla_id"},
		{Name: "evento_sympla_id"},
	})
}

const upsertBatch = 100

func batchUpsert[T any](ctx context.Context, db *gorm.DB, records []T, conflict []clause.Column) error {
	for start := 0; start < len(records); start += upsertBatch {
		end := start + upsertBatch
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]
		if err := db.WithContext(ctx).Clauses(clause.OnConflict{
			Columns:   conflict,
			UpdateAll: true,
		}).Create(&chunk).Error; err != nil {
			return err
		}
	}
	return nil
}
