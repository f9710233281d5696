package cookpipe

// PassthroughCooker copies intermediate bytes unmodified into the cooked
// blob, for asset types whose intermediate form is already the final
// runtime format regardless of platform.
type PassthroughCooker struct {
	targetType string
	version    int
}

// NewPassthroughCooker returns a cooker for targetType that copies
// intermediate bytes through unchanged.
func NewPassthroughCooker(targetType string) *PassthroughCooker {
	return &PassthroughCooker{targetType: targetType, version: 1}
}

func (c *PassthroughCooker) TargetType() string { return c.targetType }
func (c *PassthroughCooker) Version() int       { return c.version }

func (c *PassthroughCooker) Cook(intermediate []byte, ctx CookContext) ([]byte, error) {
	return append([]byte(nil), intermediate...), nil
}
