package history

type ParentKind string

const (
	KindHealthCheckResult ParentKind = "health-check-result"
	KindTreatmentPlan     ParentKind = "treatment-plan"
)

func ParseKind(s string) (ParentKind, bool) {
	switch ParentKind(s) {
	case KindHealthCheckResult, KindTreatmentPlan:
		return ParentKind(s), true
	default:
		return "", false
	}
}

type Action string

const (
	ActionCreated       Action = "CREATED"
	ActionUpdated       Action = "UPDATED"
	ActionApproved      Action = "APPROVED"
	ActionCancelled     Action = "CANCELLED"
	ActionRestored      Action = "RESTORED"
	ActionSoftDeleted   Action = "SOFT_DELETED"
	ActionAutoCompleted Action = "AUTO_COMPLETED"
)

// Status es el estado del parent antes/después de un cambio.
// Lo dejamos abierto (string) porque el catálogo lo define el core de FMCS.
type Status string

type HydrationState string

const (
	HydrationPending HydrationState = "pending"
	HydrationLoaded  HydrationState = "loaded"
	HydrationFailed  HydrationState = "failed"
)

type SortField string

const (
	SortActionDate SortField = "action_date"
	SortParentCode SortField = "parent_code"
)
