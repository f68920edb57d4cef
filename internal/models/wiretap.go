package models

import "time"

// DefaultTapPattern captures every payment and lookup transaction request.
const DefaultTapPattern = "^/api/(payments|lookups)/transactions/"

// Tap enables request capture for paths matching PathRegex.
type Tap struct {
	ID        uint   `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	PathRegex string `gorm:"column:path_regex;size:255" json:"path_regex"`
	MaskCHD   bool   `gorm:"column:mask_chd;default:true" json:"mask_chd"`
	IsActive  bool   `gorm:"column:is_active;default:true" json:"is_active"`
}

func (Tap) TableName() string {
	return "wiretap_tap"
}

// Message is one captured inbound HTTP exchange.
type Message struct {
	ID              uint       `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Reference       string     `gorm:"column:reference;size:36;uniqueIndex" json:"reference"`
	StartedAt       time.Time  `gorm:"column:started_at;index" json:"started_at"`
	EndedAt         *time.Time `gorm:"column:ended_at" json:"ended_at"`
	RemoteAddr      string     `gorm:"column:remote_addr;size:45" json:"remote_addr"`
	ReqMethod       string     `gorm:"column:req_method;size:10" json:"req_method"`
	ReqPath         string     `gorm:"column:req_path;size:2048" json:"req_path"`
	ReqHeaders      string     `gorm:"column:req_headers_json;type:text" json:"req_headers"`
	ReqBody         string     `gorm:"column:req_body;type:longtext" json:"req_body"`
	ResStatusCode   int        `gorm:"column:res_status_code" json:"res_status_code"`
	ResReasonPhrase string     `gorm:"column:res_reason_phrase;size:64" json:"res_reason_phrase"`
	ResHeaders      string     `gorm:"column:res_headers_json;type:text" json:"res_headers"`
	ResBody         string     `gorm:"column:res_body;type:longtext" json:"res_body"`
	InteractionID   string     `gorm:"column:interaction_id;size:255;index" json:"interaction_id"`
}

func (Message) TableName() string {
	return "wiretap_message"
}

// MessageBodies is the wiretap excerpt attached to report rows.
type MessageBodies struct {
	ReqBody string `json:"req_body"`
	ResBody string `json:"res_body"`
}

// TransactionReport is one payments report row.
type TransactionReport struct {
	Transaction
	CreatedOn  string         `json:"created_on"`
	ModifiedOn string         `json:"modified_on"`
	Message    *MessageBodies `json:"message"`
}

const reportTimeLayout = "2006-01-02 15:04:05"

// NewTransactionReport renders t with its wiretap excerpt, if loaded.
func NewTransactionReport(t Transaction) TransactionReport {
	row := TransactionReport{Transaction: t, CreatedOn: t.CreatedOn.Format(reportTimeLayout)}
	if !t.ModifiedOn.IsZero() {
		row.ModifiedOn = t.ModifiedOn.Format(reportTimeLayout)
	}
	if t.Message != nil {
		row.Message = &MessageBodies{ReqBody: t.Message.ReqBody, ResBody: t.Message.ResBody}
	}
	return row
}

// NewMessageReport renders a wiretap message that never reached a processor.
func NewMessageReport(m Message) TransactionReport {
	return NewTransactionReport(Transaction{
		MessageID:     &m.ID,
		InteractionID: m.InteractionID,
		CreatedOn:     m.StartedAt,
		Message:       &m,
	})
}
