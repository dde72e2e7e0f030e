package handler

import (
	"time"

	"folio/internal/registry/models"
)

type PortfolioResponse struct {
	Address   string    `json:"address"`
	Bump      uint8     `json:"bump"`
	Authority string    `json:"authority"`
	Version   uint64    `json:"version"`
	Hash      string    `json:"hash"`
	HashCID   string    `json:"hash_cid"`
	UpdatedAt time.Time `json:"updated_at"`
	Created   bool      `json:"created,omitempty"`
}

type IssuerResponse struct {
	Address   string `json:"address"`
	Bump      uint8  `json:"bump"`
	Authority string `json:"authority"`
	Name      string `json:"name"`
}

type CredentialResponse struct {
	Address      string    `json:"address"`
	Bump         uint8     `json:"bump"`
	Issuer       string    `json:"issuer"`
	Student      string    `json:"student"`
	Reference    string    `json:"reference"`
	ReferenceCID string    `json:"reference_cid"`
	IssuedAt     time.Time `json:"issued_at"`
}

type CredentialListResponse struct {
	Credentials []CredentialResponse `json:"credentials"`
}

func toPortfolioResponse(r *models.PortfolioReceipt) PortfolioResponse {
	return PortfolioResponse{
		Address:   r.Address.String(),
		Bump:      r.Bump,
		Authority: r.Record.Authority.String(),
		Version:   r.Record.Version,
		Hash:      r.Record.Hash.String(),
		HashCID:   r.Record.Hash.CID(),
		UpdatedAt: r.Record.UpdatedAt,
		Created:   r.Created,
	}
}

func toIssuerResponse(r *models.IssuerReceipt) IssuerResponse {
	return IssuerResponse{
		Address:   r.Address.String(),
		Bump:      r.Issuer.Bump,
		Authority: r.Issuer.Authority.String(),
		Name:      r.Issuer.Name,
	}
}

func toCredentialResponse(r *models.CredentialReceipt) CredentialResponse {
	c := r.Credential
	return CredentialResponse{
		Address:      r.Address.String(),
		Bump:         c.Bump,
		Issuer:       c.Issuer.String(),
		Student:      c.Student.String(),
		Reference:    c.Reference.String(),
		ReferenceCID: c.Reference.CID(),
		IssuedAt:     c.IssuedAt,
	}
}
