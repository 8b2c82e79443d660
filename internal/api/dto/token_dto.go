package dto

import (
	"time"

	"github.com/spec-kit/token-queue-service/internal/domain"
)

// CreateTokenRequest is a booking submission.
type CreateTokenRequest struct {
	FullName string       `json:"fullName"`
	Mobile   string       `json:"mobile"`
	Purpose  string       `json:"purpose"`
	Extra    domain.Extra `json:"extra,omitempty"`
}

// TokenView is the wire representation of a token. Field casing matches the
// consumers of the original API.
type TokenView struct {
	TokenGuid   string       `json:"TokenGuid"`
	TokenNumber int          `json:"TokenNumber"`
	FullName    string       `json:"FullName"`
	Mobile      string       `json:"Mobile"`
	Purpose     string       `json:"Purpose"`
	Extra       domain.Extra `json:"Extra,omitempty"`
	Status      string       `json:"Status"`
	CounterName string       `json:"CounterName,omitempty"`
	TokenDate   string       `json:"TokenDate"`
	CreatedAt   time.Time    `json:"CreatedAt"`
}

// TokenEnvelope wraps a single-token response.
type TokenEnvelope struct {
	Success bool       `json:"success"`
	Token   *TokenView `json:"token,omitempty"`
}

// DisplayStatusResponse is the display board snapshot.
type DisplayStatusResponse struct {
	Success    bool        `json:"success"`
	NowServing *TokenView  `json:"nowServing"`
	Queue      []TokenView `json:"queue"`
}

// SearchRequest resolves a number or name/mobile fragment to a token id.
type SearchRequest struct {
	SearchTerm string `json:"searchTerm"`
}

// SearchResponse carries the resolved token id.
type SearchResponse struct {
	Success   bool   `json:"success"`
	TokenGuid string `json:"tokenGuid,omitempty"`
}

// TokenListResponse is the admin listing page.
type TokenListResponse struct {
	Tokens     []TokenView `json:"tokens"`
	TotalCount int         `json:"totalCount"`
}

// CallNextRequest claims the next pending token for a counter.
type CallNextRequest struct {
	CounterName string `json:"counterName"`
}

// CallNextResponse reports the claimed token, or success:false with a
// message when the queue is empty.
type CallNextResponse struct {
	Success     bool   `json:"success"`
	TokenGuid   string `json:"tokenGuid,omitempty"`
	TokenNumber int    `json:"tokenNumber,omitempty"`
	FullName    string `json:"fullName,omitempty"`
	Purpose     string `json:"purpose,omitempty"`
	Message     string `json:"message,omitempty"`
}

// UpdateStatusRequest moves a token along its lifecycle.
type UpdateStatusRequest struct {
	TokenGuid   string `json:"tokenGuid"`
	Status      string `json:"status"`
	CounterName string `json:"counterName,omitempty"`
}

// StatusResponse is the generic success envelope.
type StatusResponse struct {
	Success bool `json:"success"`
}

// NewTokenView maps a domain token to its wire form.
func NewTokenView(token *domain.Token) *TokenView {
	if token == nil {
		return nil
	}
	view := &TokenView{
		TokenGuid:   token.ID,
		TokenNumber: token.Number,
		FullName:    token.FullName,
		Mobile:      token.Mobile,
		Purpose:     token.Purpose,
		Extra:       token.Extra,
		Status:      string(token.Status),
		TokenDate:   token.TokenDate.Format("2006-01-02"),
		CreatedAt:   token.CreatedAt,
	}
	if token.CounterName != nil {
		view.CounterName = *token.CounterName
	}
	return view
}

// NewTokenViews maps a token slice to wire form.
func NewTokenViews(tokens []domain.Token) []TokenView {
	views := make([]TokenView, 0, len(tokens))
	for i := range tokens {
		views = append(views, *NewTokenView(&tokens[i]))
	}
	return views
}
