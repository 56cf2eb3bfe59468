package entitlement_test

import (
	"encoding/json"
	"testing"

	"github.com/projectnest/projectnest/internal/config"
	"github.com/projectnest/projectnest/internal/entitlement"
	projectdomain "github.com/projectnest/projectnest/internal/project/domain"
	"github.com/stretchr/testify/assert"
)

func TestDecodeMetadata(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want entitlement.MetadataKind
	}{
		{"project id", `{"project_id":"194100373254901760"}`, entitlement.MetaProjectUnlock},
		{"lead id", `{"lead_id":"194100373254901761"}`, entitlement.MetaLeadConversion},
		{"service code", `{"service":"full_service"}`, entitlement.MetaServiceAddon},
		{"project wins over lead", `{"project_id":"1","lead_id":"2"}`, entitlement.MetaProjectUnlock},
		{"lead wins over service", `{"lead_id":"2","service":"x"}`, entitlement.MetaLeadConversion},
		{"empty object", `{}`, entitlement.MetaUnknown},
		{"invalid json", `{not json`, entitlement.MetaUnknown},
		{"non numeric id", `{"project_id":"abc!"}`, entitlement.MetaUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := entitlement.DecodeMetadata(json.RawMessage(tt.raw))
			assert.Equal(t, tt.want, got.Kind)
		})
	}

	assert.Equal(t, entitlement.MetaUnknown, entitlement.DecodeMetadata(nil).Kind)
}

func TestResolve(t *testing.T) {
	catalog := config.DefaultCatalog()

	draft := &projectdomain.Project{
		Mode:   projectdomain.ModeSelfService,
		Status: projectdomain.StatusDraft,
	}

	t.Run("self service amount activates project", func(t *testing.T) {
		patch := entitlement.Resolve(catalog, 7500, entitlement.Metadata{Kind: entitlement.MetaUnknown}, draft)
		assert.True(t, patch.Unlock)
		assert.Equal(t, projectdomain.ModeSelfService, patch.Mode)
		assert.Equal(t, projectdomain.StatusActive, patch.Status)
		assert.Nil(t, patch.Lock)
	})

	t.Run("full service amount locks for the team", func(t *testing.T) {
		patch := entitlement.Resolve(catalog, 15000, entitlement.Metadata{Kind: entitlement.MetaUnknown}, draft)
		assert.Equal(t, projectdomain.ModeFullService, patch.Mode)
		assert.Equal(t, projectdomain.StatusInProgress, patch.Status)
		if assert.NotNil(t, patch.Lock) {
			assert.True(t, *patch.Lock)
		}
	})

	t.Run("uncatalogued amount gives generic unlock", func(t *testing.T) {
		patch := entitlement.Resolve(catalog, 9999, entitlement.Metadata{Kind: entitlement.MetaUnknown}, draft)
		assert.True(t, patch.Unlock)
		assert.Equal(t, projectdomain.StatusActive, patch.Status, "draft should promote to active")
		assert.Equal(t, projectdomain.ModeSelfService, patch.Mode)
	})

	t.Run("uncatalogued amount keeps existing state", func(t *testing.T) {
		current := &projectdomain.Project{
			Mode:   projectdomain.ModeFullService,
			Status: projectdomain.StatusInProgress,
		}
		patch := entitlement.Resolve(catalog, 9999, entitlement.Metadata{Kind: entitlement.MetaUnknown}, current)
		assert.Equal(t, projectdomain.ModeFullService, patch.Mode, "follow-up payment must not downgrade")
		assert.Equal(t, projectdomain.StatusInProgress, patch.Status)
	})

	t.Run("service addon metadata overrides amount lookup", func(t *testing.T) {
		meta := entitlement.Metadata{Kind: entitlement.MetaServiceAddon, Service: "full_service"}
		patch := entitlement.Resolve(catalog, 9999, meta, draft)
		assert.Equal(t, projectdomain.ModeFullService, patch.Mode)
	})

	t.Run("nil project defaults", func(t *testing.T) {
		patch := entitlement.Resolve(catalog, 7500, entitlement.Metadata{Kind: entitlement.MetaUnknown}, nil)
		assert.Equal(t, projectdomain.ModeSelfService, patch.Mode)
		assert.Equal(t, projectdomain.StatusActive, patch.Status)
	})

	t.Run("idempotent over its own result", func(t *testing.T) {
		first := entitlement.Resolve(catalog, 15000, entitlement.Metadata{Kind: entitlement.MetaUnknown}, draft)
		after := &projectdomain.Project{
			Mode:     first.Mode,
			Status:   first.Status,
			Unlocked: true,
		}
		second := entitlement.Resolve(catalog, 15000, entitlement.Metadata{Kind: entitlement.MetaUnknown}, after)
		assert.Equal(t, first.Mode, second.Mode)
		assert.Equal(t, first.Status, second.Status)
	})
}
