package authz

/* ========================================================================
 * Role - 成员角色
 * ========================================================================
 * 职责: 定义角色全序 viewer < member < admin < owner
 * 设计: 比较只在同一租户层级内有意义，层级之间没有权限继承；
 *       未知角色的序为 -1，永远不满足任何要求
 * ======================================================================== */

// Role 成员角色
type Role string

const (
	RoleViewer Role = "viewer"
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
	RoleOwner  Role = "owner"
)

// roleOrder 角色全序
var roleOrder = map[Role]int{
	RoleViewer: 0,
	RoleMember: 1,
	RoleAdmin:  2,
	RoleOwner:  3,
}

// Valid 是否为已知角色
func (r Role) Valid() bool {
	_, ok := roleOrder[r]
	return ok
}

// Order 角色序，未知角色为 -1
func (r Role) Order() int {
	if order, ok := roleOrder[r]; ok {
		return order
	}
	return -1
}

// AtLeast r 的权限是否覆盖 required
// 任一方为未知角色时返回 false
func (r Role) AtLeast(required Role) bool {
	if !r.Valid() || !required.Valid() {
		return false
	}
	return r.Order() >= required.Order()
}
