package configs

// Configurable values are resolved from the cue path named by ConfigExpr.
type Configurable interface {
	ConfigExpr() string
}

func Lookup[T Configurable](loader Loader, aliases ...string) T {
	var zero T
	if v := First[T](loader, zero.ConfigExpr()); any(v) != any(zero) {
		return v
	}
	for _, alias := range aliases {
		if v := First[T](loader, alias); any(v) != any(zero) {
			return v
		}
	}
	return zero
}
