package entitlement

import (
	"encoding/json"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/projectnest/projectnest/internal/config"
	projectdomain "github.com/projectnest/projectnest/internal/project/domain"
)

// Metadata is what the gateway echoed back about a payment's intent,
// decoded into one of a fixed set of shapes. Anything unrecognized decodes
// to Unknown rather than failing: a paid customer always gets at least the
// generic unlock.
type Metadata struct {
	Kind      MetadataKind
	ProjectID snowflake.ID
	LeadID    snowflake.ID
	Service   string
}

type MetadataKind string

const (
	MetaProjectUnlock  MetadataKind = "project_unlock"
	MetaLeadConversion MetadataKind = "lead_conversion"
	MetaServiceAddon   MetadataKind = "service_addon"
	MetaUnknown        MetadataKind = "unknown"
)

type rawMetadata struct {
	ProjectID string `json:"project_id"`
	LeadID    string `json:"lead_id"`
	Service   string `json:"service"`
}

// DecodeMetadata discriminates on which field is present. project_id wins
// over lead_id wins over service when several are set.
func DecodeMetadata(raw json.RawMessage) Metadata {
	if len(raw) == 0 {
		return Metadata{Kind: MetaUnknown}
	}

	var decoded rawMetadata
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return Metadata{Kind: MetaUnknown}
	}

	if id, err := snowflake.ParseString(strings.TrimSpace(decoded.ProjectID)); err == nil && decoded.ProjectID != "" {
		return Metadata{Kind: MetaProjectUnlock, ProjectID: id}
	}
	if id, err := snowflake.ParseString(strings.TrimSpace(decoded.LeadID)); err == nil && decoded.LeadID != "" {
		return Metadata{Kind: MetaLeadConversion, LeadID: id}
	}
	if svc := strings.TrimSpace(decoded.Service); svc != "" {
		return Metadata{Kind: MetaServiceAddon, Service: svc}
	}
	return Metadata{Kind: MetaUnknown}
}

// Resolve maps a verified amount plus metadata onto the patch a project
// receives. Pure over its inputs and idempotent: resolving the same
// payment twice yields the same patch.
func Resolve(catalog config.Catalog, amount int64, meta Metadata, current *projectdomain.Project) projectdomain.Patch {
	patch := projectdomain.Patch{Unlock: true}

	if current != nil {
		patch.Mode = current.Mode
		patch.Status = current.Status
	}
	if patch.Mode == "" {
		patch.Mode = projectdomain.ModeSelfService
	}
	if patch.Status == "" {
		patch.Status = projectdomain.StatusActive
	}

	point, ok := catalog.FindByAmount(amount)
	if meta.Kind == MetaServiceAddon {
		if byCode, found := catalog.FindByCode(meta.Service); found {
			point, ok = byCode, true
		}
	}
	if !ok {
		// Amount not in the catalog: generic unlock, current mode kept.
		if patch.Status == projectdomain.StatusDraft {
			patch.Status = projectdomain.StatusActive
		}
		return patch
	}

	switch point.Mode {
	case string(projectdomain.ModeFullService):
		patch.Mode = projectdomain.ModeFullService
		patch.Status = projectdomain.StatusInProgress
		locked := true
		patch.Lock = &locked
	default:
		patch.Mode = projectdomain.ModeSelfService
		patch.Status = projectdomain.StatusActive
	}
	return patch
}
