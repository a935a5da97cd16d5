package authn

// RequirementsMet reports whether every required authentication method has
// been achieved. An empty requirement set means multifactor authentication
// is not mandated, so any achieved set (including none) passes.
//
// Method identifiers are opaque strings; both required and achieved share
// one namespace.
func RequirementsMet(required, achieved []string) bool {
	if len(required) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(achieved))
	for _, m := range achieved {
		have[m] = struct{}{}
	}
	for _, m := range required {
		if _, ok := have[m]; !ok {
			return false
		}
	}
	return true
}
