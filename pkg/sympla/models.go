package sympla

import (
	"time"

	"gorm.io/datatypes"
)

// EventRecord is one stored ticketed event, keyed by the upstream id so
// re-syncs update in place.
type EventRecord struct {
	ID            uint              `gorm:"primaryKey;column:id"`
	BarID         int               `gorm:"column:bar_id"`
	EventoID      int64             `gorm:"column:evento_sympla_id;uniqueIndex"`
	ReferenceID   int64             `gorm:"column:reference_id"`
	Nome          string            `gorm:"column:nome_evento"`
	DataInicio    string            `gorm:"column:data_inicio"`
	DataFim       string            `gorm:"column:data_fim"`
	Publicado     bool              `gorm:"column:publicado"`
	ImagemURL     string            `gorm:"column:imagem_url"`
	EventoURL     string            `gorm:"column:evento_url"`
	Endereco      datatypes.JSONMap `gorm:"column:dados_endereco"`
	Host          datatypes.JSONMap `gorm:"column:dados_host"`
	CategoriaPrim string            `gorm:"column:categoria_primaria"`
	CategoriaSec  string            `gorm:"column:categoria_secundaria"`
	CreatedAt     time.Time         `gorm:"column:created_at"`
	UpdatedAt     time.Time         `gorm:"column:updated_at"`
}

func (EventRecord) TableName() string {
	return "sympla_eventos"
}

// ParticipantRecord is one stored attendee.
type ParticipantRecord struct {
	ID             uint              `gorm:"primaryKey;column:id"`
	BarID          int               `gorm:"column:bar_id"`
	ParticipanteID int64             `gorm:"column:participante_sympla_id;uniqueIndex"`
	EventoID       int64             `gorm:"column:evento_sympla_id"`
	PedidoID       string            `gorm:"column:pedido_id"`
	NomeCompleto   string            `gorm:"column:nome_completo"`
	Email          string            `gorm:"column:email"`
	TipoIngresso   string            `gorm:"column:tipo_ingresso"`
	NumeroTicket   string            `gorm:"column:numero_ticket"`
	FezCheckin     bool              `gorm:"column:fez_checkin"`
	DataCheckin    *string           `gorm:"column:data_checkin;type:timestamp"`
	StatusPedido   string            `gorm:"column:status_pedido"`
	DadosTicket    datatypes.JSONMap `gorm:"column:dados_ticket"`
	CreatedAt      time.Time         `gorm:"column:created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at"`
}

func (ParticipantRecord) TableName() string {
	return "sympla_participantes"
}

// OrderRecord is one stored purchase. The upstream fee is the spread
// between gross and net.
type OrderRecord struct {
	ID             uint              `gorm:"primaryKey;column:id"`
	BarID          int               `gorm:"column:bar_id"`
	PedidoID       string            `gorm:"column:pedido_sympla_id;uniqueIndex:idx_pedido_evento"`
	EventoID       int64             `gorm:"column:evento_sympla_id;uniqueIndex:idx_pedido_evento"`
	DataPedido     *string           `gorm:"column:data_pedido;type:timestamp"`
	StatusPedido   string            `gorm:"column:status_pedido"`
	TipoTransacao  string            `gorm:"column:tipo_transacao"`
	NomeComprador  string            `gorm:"column:nome_comprador"`
	EmailComprador string            `gorm:"column:email_comprador"`
	ValorBruto     float64           `gorm:"column:valor_bruto"`
	ValorLiquido   float64           `gorm:"column:valor_liquido"`
	TaxaSympla     float64           `gorm:"column:taxa_sympla"`
	DadosUTM       datatypes.JSONMap `gorm:"column:dados_utm"`
	DadosComprador datatypes.JSONMap `gorm:"column:dados_comprador"`
	CreatedAt      time.Time         `gorm:"column:created_at"`
	UpdatedAt      time.Time         `gorm:"column:updated_at"`
}

func (OrderRecord) TableName() string {
	return "sympla_pedidos"
}

// Models lists every ticketing model for migration.
func Models() []interface{} {
	return []interface{}{
		&EventRecord{},
		&ParticipantRecord{},
		&OrderRecord{},
	}
}
