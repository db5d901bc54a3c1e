package entity

import (
	"fmt"
	"invitebot/lib/validate"
	"net/http"
	"strings"
)

// CreateMode selects the naming strategy of a link batch.
type CreateMode string

const (
	ModeNoTitle CreateMode = "no_title"
	ModeTitles  CreateMode = "titles"
	ModeMask    CreateMode = "mask"
)

const (
	MaxBatchCount  = 50
	MaxBatchTitles = 50
)

// CreateRequest is a batch creation request coming from the bot dialog or the API.
// Strategies assume the request passed Validate.
type CreateRequest struct {
	Mode   CreateMode `json:"mode" validate:"required,oneof=no_title titles mask"`
	Count  int        `json:"count" validate:"min=0,max=50"`
	Titles []string   `json:"titles" validate:"max=50,dive,required"`
	Mask   string     `json:"mask"`
}

func (c *CreateRequest) Bind(_ *http.Request) error {
	return c.Validate()
}

func (c *CreateRequest) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	switch c.Mode {
	case ModeNoTitle:
		if c.Count < 1 {
			return fmt.Errorf("count must be between 1 and %d", MaxBatchCount)
		}
	case ModeTitles:
		if !hasTitle(c.Titles) {
			return fmt.Errorf("titles required")
		}
	case ModeMask:
		if c.Mask == "" {
			return fmt.Errorf("mask required")
		}
		if c.Count < 1 {
			return fmt.Errorf("count must be between 1 and %d", MaxBatchCount)
		}
	}
	return nil
}

func hasTitle(titles []string) bool {
	for _, t := range titles {
		if strings.TrimSpace(t) != "" {
			return true
		}
	}
	return false
}
