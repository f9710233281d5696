package importpipe

// PassthroughImporter stores source bytes unmodified as the intermediate
// representation, for asset types that need no transformation step (raw
// binary blobs, already-baked data). TargetType is fixed at construction
// so one PassthroughImporter instance can back one extension set.
type PassthroughImporter struct {
	targetType string
	extensions []string
	version    int
}

// NewPassthroughImporter returns an importer for extensions that stores
// source bytes verbatim as the intermediate blob.
func NewPassthroughImporter(targetType string, extensions []string) *PassthroughImporter {
	return &PassthroughImporter{targetType: targetType, extensions: extensions, version: 1}
}

func (p *PassthroughImporter) Name() string         { return "passthrough:" + p.targetType }
func (p *PassthroughImporter) Version() int         { return p.version }
func (p *PassthroughImporter) TargetType() string   { return p.targetType }
func (p *PassthroughImporter) Extensions() []string { return p.extensions }

func (p *PassthroughImporter) Import(source []byte, ctx *ImportContext) Result {
	return Result{Success: true, Intermediate: append([]byte(nil), source...)}
}
