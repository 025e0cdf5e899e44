package provisioner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResourceStatus is the last-known outcome recorded for a managed resource.
type ResourceStatus string

const (
	StatusCreated ResourceStatus = "created"
	StatusUpdated ResourceStatus = "updated"
	StatusDeleted ResourceStatus = "deleted"
	StatusDrifted ResourceStatus = "drifted"
	StatusUnknown ResourceStatus = "unknown"
)

// ResourceRecord is what's persisted for one managed resource: the result
// of the last successful create/update plus its status.
type ResourceRecord struct {
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	Status       ResourceStatus `json:"status"`
	Properties   map[string]any `json:"properties"`
}

// ProvisionerState is the full persisted state for one account. It is
// created empty on first load, mutated only by the executor, and persisted
// atomically after every mutation.
type ProvisionerState struct {
	ManifestVersion *uint32                            `json:"manifest_version"`
	Region          string                             `json:"region"`
	Bucket          string                             `json:"bucket"`
	Resources       map[ResourceAddress]ResourceRecord `json:"resources"`
}

// NewProvisionerState returns a fresh, empty state for the given region and
// bucket, as returned by load() when neither persistence sink has anything.
func NewProvisionerState(region, bucket string) ProvisionerState {
	return ProvisionerState{Region: region, Bucket: bucket, Resources: map[ResourceAddress]ResourceRecord{}}
}

// wireState is the JSON-on-the-wire shape of ProvisionerState: resources
// keyed by the string form of ResourceAddress ("{type}.{name}"), since JSON
// object keys must be strings and ResourceAddress is a struct.
type wireState struct {
	ManifestVersion *uint32                   `json:"manifest_version"`
	Region          string                    `json:"region"`
	Bucket          string                    `json:"bucket"`
	Resources       map[string]ResourceRecord `json:"resources"`
}

// MarshalJSON renders ProvisionerState in its canonical wire shape.
func (s ProvisionerState) MarshalJSON() ([]byte, error) {
	w := wireState{
		ManifestVersion: s.ManifestVersion,
		Region:          s.Region,
		Bucket:          s.Bucket,
		Resources:       make(map[string]ResourceRecord, len(s.Resources)),
	}
	for addr, rec := range s.Resources {
		w.Resources[addr.String()] = rec
	}
	return json.Marshal(w)
}

// UnmarshalJSON parses the canonical wire shape back into ProvisionerState.
// It does not attempt migration — callers wanting migration fallback should
// use migrateV1ToV2 on the raw payload first, per §4.5.
func (s *ProvisionerState) UnmarshalJSON(data []byte) error {
	var w wireState
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	s.ManifestVersion = w.ManifestVersion
	s.Region = w.Region
	s.Bucket = w.Bucket
	s.Resources = make(map[ResourceAddress]ResourceRecord, len(w.Resources))
	for key, rec := range w.Resources {
		addr, err := parseAddr(key)
		if err != nil {
			return fmt.Errorf("decode resource key %q: %w", key, err)
		}
		s.Resources[addr] = rec
	}
	return nil
}

func parseAddr(key string) (ResourceAddress, error) {
	idx := strings.Index(key, ".")
	if idx < 0 {
		return ResourceAddress{}, fmt.Errorf("expected \"type.name\", got %q", key)
	}
	return ResourceAddress{TypeTag: key[:idx], LogicalName: key[idx+1:]}, nil
}

// isV2 reports whether a raw state payload already carries the v2 shape:
// presence of the manifest_version key (even when its value is null) is the
// v2 signal, matching the original migration's "already v2" test.
func isV2(raw map[string]json.RawMessage) bool {
	_, ok := raw["manifest_version"]
	return ok
}

// migrateV1ToV2 rewrites a v1 state payload — whose resources map was keyed
// by resource_type alone — into the v2 shape keyed by "{type}.{name}",
// deriving the logical name from each record's resource_id. It leaves
// manifest_version unset so the next plan() treats the run as a manifest
// change. A payload that already looks like v2 is returned unchanged.
func migrateV1ToV2(data []byte) ([]byte, bool, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false, fmt.Errorf("parse raw state: %w", err)
	}
	if isV2(raw) {
		return data, false, nil
	}

	var oldResources map[string]ResourceRecord
	if resRaw, ok := raw["resources"]; ok {
		if err := json.Unmarshal(resRaw, &oldResources); err != nil {
			return nil, false, fmt.Errorf("parse v1 resources: %w", err)
		}
	}

	newResources := make(map[string]ResourceRecord, len(oldResources))
	for typeTag, rec := range oldResources {
		logicalName := rec.ResourceID
		if logicalName == "" {
			logicalName = typeTag
		}
		newResources[typeTag+"."+logicalName] = rec
	}

	w := wireStateRaw{
		ManifestVersion: nil,
		Resources:       newResources,
	}
	if regionRaw, ok := raw["region"]; ok {
		_ = json.Unmarshal(regionRaw, &w.Region)
	}
	if bucketRaw, ok := raw["bucket"]; ok {
		_ = json.Unmarshal(bucketRaw, &w.Bucket)
	}

	out, err := json.Marshal(w)
	if err != nil {
		return nil, false, fmt.Errorf("marshal migrated state: %w", err)
	}
	return out, true, nil
}

// wireStateRaw mirrors wireState but with resources already keyed by the v2
// string form — used only inside migrateV1ToV2 to avoid round-tripping
// through ResourceAddress parsing for keys it just built.
type wireStateRaw struct {
	ManifestVersion *uint32                   `json:"manifest_version"`
	Region          string                    `json:"region"`
	Bucket          string                    `json:"bucket"`
	Resources       map[string]ResourceRecord `json:"resources"`
}
