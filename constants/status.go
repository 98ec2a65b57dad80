package constants

// FailureKind classifies why a receipt processing run failed.
// Stable values (they are surfaced in reports and over gRPC).
type FailureKind string

const (
	FailureNoAccessibleImage   FailureKind = "NoAccessibleImage"
	FailureUnsupportedMimeType FailureKind = "UnsupportedMimeType"
	FailureMalformedResponse   FailureKind = "MalformedResponse"
	FailureProviderError       FailureKind = "ProviderError"
	FailureDateParse           FailureKind = "DateParseError"
	FailureScope               FailureKind = "ScopeError"
	FailurePersistence         FailureKind = "PersistenceError"
)

// SkipReason is the non-fatal reason an extracted item was not recorded.
type SkipReason string

const (
	SkipNoBarcode         SkipReason = "NoBarcode"
	SkipUnresolvedProduct SkipReason = "UnresolvedProduct"
	SkipOutOfRecipeScope  SkipReason = "OutOfRecipeScope"
)

// UnknownRecipePolicy decides what a run does when the requested recipe does not exist.
type UnknownRecipePolicy string

const (
	UnknownRecipeUnscoped UnknownRecipePolicy = "unscoped" // accept every resolved item
	UnknownRecipeEmpty    UnknownRecipePolicy = "empty"    // accept nothing
	UnknownRecipeFail     UnknownRecipePolicy = "fail"     // fail the run
)

// ParseUnknownRecipePolicy maps a config string to a policy, defaulting to unscoped.
func ParseUnknownRecipePolicy(s string) (UnknownRecipePolicy, bool) {
	switch UnknownRecipePolicy(s) {
	case UnknownRecipeUnscoped, "":
		return UnknownRecipeUnscoped, true
	case UnknownRecipeEmpty:
		return UnknownRecipeEmpty, true
	case UnknownRecipeFail:
		return UnknownRecipeFail, true
	}
	return UnknownRecipeUnscoped, false
}
