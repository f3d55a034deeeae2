package session

import "strings"

// FallbackTenantID partitions data written while no dietitian is signed in.
// The same id is used on every device, so a later sign-in can still reconcile
// against it.
const FallbackTenantID = "local-dietitian"

const tenantPrefix = "user-"

// TenantID is the partition key separating one dietitian's data from
// another's in the shared remote store.
type TenantID string

// String returns the underlying partition key.
func (t TenantID) String() string {
	return string(t)
}

// ResolveTenantID derives the remote partition key from session claims. A nil
// or anonymous session maps to the fallback tenant; the function is total and
// never fails.
func ResolveTenantID(claims *Claims) TenantID {
	if claims == nil {
		return FallbackTenantID
	}
	userID := strings.TrimSpace(claims.UserID)
	if userID == "" {
		return FallbackTenantID
	}
	return TenantID(tenantPrefix + userID)
}
