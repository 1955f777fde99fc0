package authz

const (
	RoleAdmin     = "admin"
	RoleManager   = "manager"
	RoleSales     = "sales"
	RoleUser      = "user"
	RoleAnonymous = "anonymous"
)

const (
	ActionRead       = "read"
	ActionWrite      = "write"
	ActionCreate     = "create"
	ActionTransition = "transition"
	ActionUse        = "use"
)

// DomainAll matches every tenant in policy lines.
const DomainAll = "*"

const (
	ObjectCatalogClients  = "catalog.clients"
	ObjectCatalogProducts = "catalog.products"
	ObjectSalesOrders     = "sales.orders"
	ObjectAssistantChat   = "assistant.chat"
)

// KnownRole reports whether slug is one of the tenant roles.
func KnownRole(slug string) bool {
	switch slug {
	case RoleAdmin, RoleManager, RoleSales, RoleUser:
		return true
	default:
		return false
	}
}
