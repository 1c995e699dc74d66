package domain

import "fmt"

type Operation string

const (
	OperationTextRemoval           Operation = "text_removal"
	OperationBackgroundReplacement Operation = "background_replacement"
	OperationResize                Operation = "resize"
)

func (o Operation) Valid() bool {
	switch o {
	case OperationTextRemoval, OperationBackgroundReplacement, OperationResize:
		return true
	}
	return false
}

type FitMode string

const (
	FitCover   FitMode = "cover"
	FitContain FitMode = "contain"
	FitFill    FitMode = "fill"
	FitStretch FitMode = "stretch"
)

const (
	DefaultMaskFeatherPx = 4
	MinMaskFeatherPx     = 2
	MaxMaskFeatherPx     = 5
)

type ResizeParams struct {
	Width  int     `json:"width,omitempty"`
	Height int     `json:"height,omitempty"`
	Preset string  `json:"preset,omitempty"`
	Fit    FitMode `json:"fit,omitempty"`

	// MaintainAspectRatio defaults to true when absent; false forces a
	// plain stretch to the target box regardless of the fit mode.
	MaintainAspectRatio *bool  `json:"maintain_aspect_ratio,omitempty"`
	Background          string `json:"background,omitempty"`
}

// KeepAspect resolves the effective aspect-ratio flag.
func (p *ResizeParams) KeepAspect() bool {
	return p.MaintainAspectRatio == nil || *p.MaintainAspectRatio
}

type BackgroundParams struct {
	StyleID      string `json:"style_id,omitempty"`
	CustomPrompt string `json:"custom_prompt,omitempty"`
}

type TextRemovalParams struct {
	FeatherPx int `json:"feather_px,omitempty"`
}

// JobParams is a tagged union keyed on Op. Exactly the field matching Op
// is consulted; the rest stay nil.
type JobParams struct {
	Op          Operation          `json:"op"`
	Resize      *ResizeParams      `json:"resize,omitempty"`
	Background  *BackgroundParams  `json:"background,omitempty"`
	TextRemoval *TextRemovalParams `json:"text_removal,omitempty"`
}

func (p *JobParams) Validate() error {
	switch p.Op {
	case OperationResize:
		if p.Resize == nil {
			return fmt.Errorf("%w: resize params are required", ErrInvalidOperation)
		}
		if p.Resize.Preset != "" {
			preset, ok := ResolvePreset(p.Resize.Preset)
			if !ok {
				return fmt.Errorf("%w: unknown resize preset %q", ErrInvalidOperation, p.Resize.Preset)
			}
			p.Resize.Width = preset.Width
			p.Resize.Height = preset.Height
		}
		if p.Resize.Width <= 0 || p.Resize.Height <= 0 {
			return fmt.Errorf("%w: resize dimensions must be positive", ErrInvalidOperation)
		}
		switch p.Resize.Fit {
		case "", FitCover, FitContain, FitFill, FitStretch:
		default:
			return fmt.Errorf("%w: unknown fit mode %q", ErrInvalidOperation, p.Resize.Fit)
		}
	case OperationBackgroundReplacement:
		if p.Background == nil {
			return fmt.Errorf("%w: background params are required", ErrInvalidOperation)
		}
		if p.Background.StyleID == "" && p.Background.CustomPrompt == "" {
			return fmt.Errorf("%w: style_id or custom_prompt is required", ErrInvalidOperation)
		}
		if p.Background.StyleID != "" {
			if _, ok := StylePrompt(p.Background.StyleID); !ok {
				return fmt.Errorf("%w: %s", ErrInvalidStyle, p.Background.StyleID)
			}
		}
	case OperationTextRemoval:
		if p.TextRemoval != nil && p.TextRemoval.FeatherPx != 0 {
			if p.TextRemoval.FeatherPx < MinMaskFeatherPx || p.TextRemoval.FeatherPx > MaxMaskFeatherPx {
				return fmt.Errorf("%w: feather_px must be between %d and %d",
					ErrInvalidOperation, MinMaskFeatherPx, MaxMaskFeatherPx)
			}
		}
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOperation, p.Op)
	}
	return nil
}

// FeatherPx resolves the effective mask feather radius for a text removal job.
func (p *JobParams) FeatherPx() int {
	if p.TextRemoval != nil && p.TextRemoval.FeatherPx != 0 {
		return p.TextRemoval.FeatherPx
	}
	return DefaultMaskFeatherPx
}
