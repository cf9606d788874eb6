package service

// AdminUsername bypasses ownership in CanModify. This is a username match,
// not a role match.
const AdminUsername = "admin"

// CanModify reports whether acting may edit or delete something written by author.
func CanModify(acting, author string) bool {
	return acting == author || acting == AdminUsername
}
