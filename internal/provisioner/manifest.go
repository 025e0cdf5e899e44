package provisioner

// Lifecycle marks whether the engine is permitted to mutate a resource.
type Lifecycle string

const (
	// LifecycleData resources are read-only preconditions: the engine
	// verifies them but never creates, updates, or destroys them.
	LifecycleData Lifecycle = "data"
	// LifecycleManaged resources are fully owned by the engine.
	LifecycleManaged Lifecycle = "managed"
)

// Severity classifies how disruptive an action against a spec would be,
// independent of its lifecycle — used by callers to gate confirmation UX.
type Severity string

const (
	SeverityInfo        Severity = "info"
	SeverityNormal      Severity = "normal"
	SeverityElevated    Severity = "elevated"
	SeverityDestructive Severity = "destructive"
)

// ResourceSpec is the static, declared desire for one resource. It is
// immutable once the manifest is constructed.
type ResourceSpec struct {
	TypeTag     string         `json:"type_tag"`
	LogicalName string         `json:"logical_name"`
	Lifecycle   Lifecycle      `json:"lifecycle"`
	Desired     map[string]any `json:"desired"`
	Label       string         `json:"label"`
	Description string         `json:"description"`
	Severity    Severity       `json:"severity"`
	IAMActions  []string       `json:"iam_actions"`
}

// Addr returns the spec's resource address.
func (s ResourceSpec) Addr() ResourceAddress {
	return ResourceAddress{TypeTag: s.TypeTag, LogicalName: s.LogicalName}
}

// orphanSpec builds the synthetic, destructive-severity spec the planner
// attaches to a Delete/Orphaned entry for a state record with no manifest
// counterpart.
func orphanSpec(addr ResourceAddress) ResourceSpec {
	return ResourceSpec{
		TypeTag:     addr.TypeTag,
		LogicalName: addr.LogicalName,
		Lifecycle:   LifecycleManaged,
		Label:       "orphaned resource",
		Description: "present in state but no longer declared in the manifest",
		Severity:    SeverityDestructive,
	}
}

// ManifestVersion is incremented whenever the spec set built by BuildManifest
// changes in a way the planner must treat as a manifest upgrade.
const ManifestVersion = 1

// Manifest is the ordered, typed catalogue of resource specifications that
// BuildManifest produces for one account. Order is significant: creates run
// in manifest order, destroys in reverse.
type Manifest struct {
	Version uint32         `json:"version"`
	Specs   []ResourceSpec `json:"specs"`
}

// Addresses returns the set of addresses declared by the manifest. Per the
// manifest invariant this is guaranteed duplicate-free by construction.
func (m Manifest) Addresses() map[ResourceAddress]struct{} {
	out := make(map[ResourceAddress]struct{}, len(m.Specs))
	for _, s := range m.Specs {
		out[s.Addr()] = struct{}{}
	}
	return out
}

const (
	iamUserName    = "claria-admin"
	iamPolicyName  = "ClariaProvisionerAccess"
	claudeSonnet   = "anthropic.claude-sonnet-4"
	claudeOpus     = "anthropic.claude-opus-4"
	trailKeyPrefix = "_cloudtrail"
)

// PrincipalUserName and PrincipalPolicyName expose the managed principal's
// fixed names for callers wiring syncers outside this package.
const (
	PrincipalUserName   = iamUserName
	PrincipalPolicyName = iamPolicyName
)

// BuildManifest constructs the fixed 12-resource manifest for one AWS
// account: the managed principal, its scoped policy, the BAA legal
// precondition, a hardened S3 bucket with its four sub-resources, the
// CloudTrail trail and its logging toggle, and the two Bedrock model
// agreements this system depends on. Spec order encodes the dependency
// chain: principal → preconditions → bucket → bucket hardening → trail →
// trail logging → model agreements.
func BuildManifest(accountID, systemName, region string) Manifest {
	bucket := accountID + "-" + systemName + "-data"
	trailName := systemName + "-trail"

	specs := []ResourceSpec{
		{
			TypeTag:     "iam_user",
			LogicalName: iamUserName,
			Lifecycle:   LifecycleData,
			Label:       "managed principal",
			Description: "the day-to-day IAM user the engine and its caller run as",
			Severity:    SeverityElevated,
			IAMActions:  []string{"iam:GetUser"},
		},
		{
			TypeTag:     "iam_user_policy",
			LogicalName: iamUserName + "-policy",
			Lifecycle:   LifecycleData,
			Label:       "managed principal policy",
			Description: "the scoped policy attached to the managed principal",
			Severity:    SeverityElevated,
			IAMActions:  []string{"iam:ListAttachedUserPolicies", "iam:GetPolicy", "iam:GetPolicyVersion"},
		},
		{
			TypeTag:     "baa_agreement",
			LogicalName: "aws-baa",
			Lifecycle:   LifecycleData,
			Label:       "business associate agreement",
			Description: "legal precondition for processing regulated data on AWS",
			Severity:    SeverityElevated,
			IAMActions:  []string{"artifact:ListCustomerAgreements"},
		},
		{
			TypeTag:     "s3_bucket",
			LogicalName: bucket,
			Lifecycle:   LifecycleManaged,
			Desired:     map[string]any{"region": region},
			Label:       "data bucket",
			Description: "primary encrypted storage bucket for this system",
			Severity:    SeverityDestructive,
			IAMActions:  []string{"s3:CreateBucket", "s3:HeadBucket", "s3:ListBucket", "s3:DeleteBucket", "s3:DeleteObject"},
		},
		{
			TypeTag:     "s3_bucket_versioning",
			LogicalName: bucket,
			Lifecycle:   LifecycleManaged,
			Desired:     map[string]any{"status": "Enabled"},
			Label:       "bucket versioning",
			Description: "object versioning on the data bucket",
			Severity:    SeverityNormal,
			IAMActions:  []string{"s3:GetBucketVersioning", "s3:PutBucketVersioning"},
		},
		{
			TypeTag:     "s3_bucket_encryption",
			LogicalName: bucket,
			Lifecycle:   LifecycleManaged,
			Desired:     map[string]any{"sse_algorithm": "AES256"},
			Label:       "bucket encryption",
			Description: "default server-side encryption on the data bucket",
			Severity:    SeverityElevated,
			IAMActions:  []string{"s3:GetEncryptionConfiguration", "s3:PutEncryptionConfiguration"},
		},
		{
			TypeTag:     "s3_bucket_public_access_block",
			LogicalName: bucket,
			Lifecycle:   LifecycleManaged,
			Desired: map[string]any{
				"block_public_acls":       true,
				"ignore_public_acls":      true,
				"block_public_policy":     true,
				"restrict_public_buckets": true,
			},
			Label:       "bucket public access block",
			Description: "blocks all public access paths on the data bucket",
			Severity:    SeverityElevated,
			IAMActions:  []string{"s3:GetBucketPublicAccessBlock", "s3:PutBucketPublicAccessBlock"},
		},
		{
			TypeTag:     "s3_bucket_policy",
			LogicalName: bucket,
			Lifecycle:   LifecycleManaged,
			Desired: map[string]any{
				"statements": []any{
					map[string]any{
						"sid":       "AWSCloudTrailAclCheck",
						"effect":    "Allow",
						"principal": map[string]any{"service": "cloudtrail.amazonaws.com"},
						"action":    "s3:GetBucketAcl",
						"resource":  "arn:aws:s3:::" + bucket,
					},
					map[string]any{
						"sid":       "AWSCloudTrailWrite",
						"effect":    "Allow",
						"principal": map[string]any{"service": "cloudtrail.amazonaws.com"},
						"action":    "s3:PutObject",
						"resource":  "arn:aws:s3:::" + bucket + "/" + trailKeyPrefix + "/AWSLogs/" + accountID + "/*",
						"condition": map[string]any{"StringEquals": map[string]any{"s3:x-amz-acl": "bucket-owner-full-control"}},
					},
				},
			},
			Label:       "bucket policy",
			Description: "grants CloudTrail write access to its own prefix in the data bucket",
			Severity:    SeverityElevated,
			IAMActions:  []string{"s3:GetBucketPolicy", "s3:PutBucketPolicy"},
		},
		{
			TypeTag:     "cloudtrail_trail",
			LogicalName: trailName,
			Lifecycle:   LifecycleManaged,
			Desired: map[string]any{
				"s3_bucket":       bucket,
				"s3_key_prefix":   trailKeyPrefix,
				"is_multi_region": false,
			},
			Label:       "audit trail",
			Description: "CloudTrail trail recording account activity to the data bucket",
			Severity:    SeverityElevated,
			IAMActions:  []string{"cloudtrail:GetTrail", "cloudtrail:CreateTrail", "cloudtrail:DeleteTrail", "cloudtrail:StopLogging"},
		},
		{
			TypeTag:     "cloudtrail_trail_logging",
			LogicalName: trailName,
			Lifecycle:   LifecycleManaged,
			Desired:     map[string]any{"enabled": true},
			Label:       "audit trail logging",
			Description: "whether the audit trail is actively recording",
			Severity:    SeverityNormal,
			IAMActions:  []string{"cloudtrail:GetTrailStatus", "cloudtrail:StartLogging", "cloudtrail:StopLogging"},
		},
		{
			TypeTag:     "bedrock_model_agreement",
			LogicalName: claudeSonnet,
			Lifecycle:   LifecycleManaged,
			Label:       "model marketplace agreement",
			Description: "acceptance of the Claude Sonnet model-marketplace agreement",
			Severity:    SeverityElevated,
			IAMActions: []string{
				"bedrock:ListFoundationModels", "bedrock:GetFoundationModelAvailability",
				"bedrock:ListFoundationModelAgreementOffers", "bedrock:CreateFoundationModelAgreement",
			},
		},
		{
			TypeTag:     "bedrock_model_agreement",
			LogicalName: claudeOpus,
			Lifecycle:   LifecycleManaged,
			Label:       "model marketplace agreement",
			Description: "acceptance of the Claude Opus model-marketplace agreement",
			Severity:    SeverityElevated,
			IAMActions: []string{
				"bedrock:ListFoundationModels", "bedrock:GetFoundationModelAvailability",
				"bedrock:ListFoundationModelAgreementOffers", "bedrock:CreateFoundationModelAgreement",
			},
		},
	}

	return Manifest{Version: ManifestVersion, Specs: specs}
}

// UnionIAMActions returns the deduplicated union of every spec's iam_actions,
// in first-seen order. The caller uses this to compute the minimal policy
// document the managed principal must hold.
func UnionIAMActions(m Manifest) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, s := range m.Specs {
		for _, a := range s.IAMActions {
			if _, ok := seen[a]; ok {
				continue
			}
			seen[a] = struct{}{}
			out = append(out, a)
		}
	}
	return out
}
