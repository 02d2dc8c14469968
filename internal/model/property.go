package model

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidProperty is returned when a property record breaks an invariant
var ErrInvalidProperty = errors.New("invalid property")

// Property represents a tokenized property listing
type Property struct {
	ID              string `json:"id" db:"id"`
	Name            string `json:"name" db:"name"`
	Description     string `json:"description" db:"description"`
	Location        string `json:"location" db:"location"`
	ImageURL        string `json:"imageUrl" db:"image_url"`
	TotalShares     int    `json:"totalShares" db:"total_shares"`
	Price           string `json:"price" db:"price"`
	Yield           string `json:"yield" db:"yield"`
	SharesAvailable int    `json:"sharesAvailable" db:"shares_available"`
}

// Validate checks the record invariants enforced on every append
func (p *Property) Validate() error {
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidProperty)
	}
	if p.TotalShares <= 0 {
		return fmt.Errorf("%w: totalShares must be positive", ErrInvalidProperty)
	}
	if p.SharesAvailable < 0 || p.SharesAvailable > p.TotalShares {
		return fmt.Errorf("%w: sharesAvailable (%d) must be between 0 and totalShares (%d)",
			ErrInvalidProperty, p.SharesAvailable, p.TotalShares)
	}
	return nil
}

// PropertySummary is the reduced view of a property embedded in advisor prompts
type PropertySummary struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
	Price       string `json:"price"`
	Yield       string `json:"yield"`
}

// Summary reduces the property to the fields the advisor model sees
func (p *Property) Summary() PropertySummary {
	return PropertySummary{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Location:    p.Location,
		Price:       p.Price,
		Yield:       p.Yield,
	}
}

// CreatePropertyDTO carries the listing form fields. Numeric fields arrive as
// strings from the listing form.
type CreatePropertyDTO struct {
	PropertyName  string `json:"propertyName" form:"propertyName" binding:"required"`
	Description   string `json:"description" form:"description"`
	Location      string `json:"location" form:"location"`
	TotalShares   string `json:"totalShares" form:"totalShares"`
	PricePerShare string `json:"pricePerShare" form:"pricePerShare"`
}

// AddPropertyRequest is the body of POST /properties/add
type AddPropertyRequest struct {
	CreatePropertyDTO CreatePropertyDTO `json:"createPropertyDto" binding:"required"`
	IPFSHash          string            `json:"ipfsHash" binding:"required"`
	TokenID           string            `json:"tokenId" binding:"required"`
}

// AddPropertyResponse is returned after a successful listing
type AddPropertyResponse struct {
	Message  string   `json:"message"`
	Property Property `json:"property"`
}

// UploadResponse is returned after an image is pinned to IPFS
type UploadResponse struct {
	Message  string `json:"message"`
	IPFSHash string `json:"ipfsHash"`
}
