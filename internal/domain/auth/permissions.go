package auth

import (
	"slices"
	"strings"
)

// Actions a permission may grant on a module.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionExport = "export"
)

// Actions lists every action in catalog order.
var Actions = []string{ActionRead, ActionCreate, ActionUpdate, ActionDelete, ActionExport}

// Modules lists the permission modules; each route group names one.
var Modules = []string{
	"customers",
	"suppliers",
	"products",
	"warehouses",
	"brands",
	"categories",
	"purchases",
	"purchase-returns",
	"sales-orders",
	"sales-returns",
	"expenses",
	"account-payable",
	"account-receivable",
	"cash",
	"reports",
	"users",
	"roles",
	"email",
	"barcode",
	"maintenance",
}

// Permission is one catalog entry.
type Permission struct {
	Code   string `json:"code"`
	Module string `json:"module"`
	Action string `json:"action"`
}

// PermissionCode returns "<module>:<action>".
func PermissionCode(module, action string) string {
	return module + ":" + action
}

// Catalog returns every module and action pair.
func Catalog() []Permission {
	out := make([]Permission, 0, len(Modules)*len(Actions))
	for _, m := range Modules {
		for _, a := range Actions {
			out = append(out, Permission{Code: PermissionCode(m, a), Module: m, Action: a})
		}
	}
	return out
}

// IsKnownPermission reports whether code names a catalog entry.
func IsKnownPermission(code string) bool {
	module, action, ok := strings.Cut(code, ":")
	return ok && slices.Contains(Modules, module) && slices.Contains(Actions, action)
}
