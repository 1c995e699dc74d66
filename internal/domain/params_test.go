package domain

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestJobParams_Validate(t *testing.T) {
	tests := []struct {
		name    string
		params  JobParams
		wantErr error
	}{
		{
			name:   "valid resize",
			params: JobParams{Op: OperationResize, Resize: &ResizeParams{Width: 100, Height: 100}},
		},
		{
			name:    "resize without params",
			params:  JobParams{Op: OperationResize},
			wantErr: ErrInvalidOperation,
		},
		{
			name:    "resize with zero width",
			params:  JobParams{Op: OperationResize, Resize: &ResizeParams{Width: 0, Height: 100}},
			wantErr: ErrInvalidOperation,
		},
		{
			name:    "resize with unknown fit",
			params:  JobParams{Op: OperationResize, Resize: &ResizeParams{Width: 10, Height: 10, Fit: "tile"}},
			wantErr: ErrInvalidOperation,
		},
		{
			name:   "resize by preset",
			params: JobParams{Op: OperationResize, Resize: &ResizeParams{Preset: "amazon_primary"}},
		},
		{
			name:    "resize with unknown preset",
			params:  JobParams{Op: OperationResize, Resize: &ResizeParams{Preset: "myspace_banner"}},
			wantErr: ErrInvalidOperation,
		},
		{
			name:   "valid background style",
			params: JobParams{Op: OperationBackgroundReplacement, Background: &BackgroundParams{StyleID: "minimal_white"}},
		},
		{
			name:   "valid background custom prompt",
			params: JobParams{Op: OperationBackgroundReplacement, Background: &BackgroundParams{CustomPrompt: "on a marble table"}},
		},
		{
			name:    "background without params",
			params:  JobParams{Op: OperationBackgroundReplacement},
			wantErr: ErrInvalidOperation,
		},
		{
			name:    "background with neither style nor prompt",
			params:  JobParams{Op: OperationBackgroundReplacement, Background: &BackgroundParams{}},
			wantErr: ErrInvalidOperation,
		},
		{
			name:    "background with unknown style",
			params:  JobParams{Op: OperationBackgroundReplacement, Background: &BackgroundParams{StyleID: "vaporwave"}},
			wantErr: ErrInvalidStyle,
		},
		{
			name:   "text removal without params",
			params: JobParams{Op: OperationTextRemoval},
		},
		{
			name:   "text removal with feather in range",
			params: JobParams{Op: OperationTextRemoval, TextRemoval: &TextRemovalParams{FeatherPx: 3}},
		},
		{
			name:    "text removal with feather out of range",
			params:  JobParams{Op: OperationTextRemoval, TextRemoval: &TextRemovalParams{FeatherPx: 9}},
			wantErr: ErrInvalidOperation,
		},
		{
			name:    "unknown operation",
			params:  JobParams{Op: "sharpen"},
			wantErr: ErrInvalidOperation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestJobParams_Validate_PresetResolvesDimensions(t *testing.T) {
	p := JobParams{Op: OperationResize, Resize: &ResizeParams{Preset: "instagram_story"}}

	require.NoError(t, p.Validate())
	require.Equal(t, 1080, p.Resize.Width)
	require.Equal(t, 1920, p.Resize.Height)
}

func TestResizeParams_KeepAspect(t *testing.T) {
	p := &ResizeParams{Width: 100, Height: 100}
	require.True(t, p.KeepAspect())

	keep := true
	p.MaintainAspectRatio = &keep
	require.True(t, p.KeepAspect())

	keep = false
	require.False(t, p.KeepAspect())
}

func TestJobParams_FeatherPx(t *testing.T) {
	p := JobParams{Op: OperationTextRemoval}
	require.Equal(t, DefaultMaskFeatherPx, p.FeatherPx())

	p.TextRemoval = &TextRemovalParams{FeatherPx: 2}
	require.Equal(t, 2, p.FeatherPx())
}

func TestStylePrompt(t *testing.T) {
	for _, style := range BackgroundStyles() {
		prompt, ok := StylePrompt(style.ID)
		require.True(t, ok, "style %s has no prompt", style.ID)
		require.NotEmpty(t, prompt)
	}

	_, ok := StylePrompt("nonexistent")
	require.False(t, ok)
}
