package repository

// SetUserMissingHook makes Load run f after it finds no user row and before
// it seeds one.
func (r *LedgerRepository) SetUserMissingHook(f func()) {
	r.userMissing = f
}
