package filter

// NoOp is the null filter. It calls the chain with the request and
// response it was given and has nothing to initialize or destroy.
var NoOp Filter = noOp{}

type noOp struct{}

func (noOp) Init(Config) error { return nil }

func (noOp) DoFilter(req Request, resp Response, next Chain) error {
	return next.DoFilter(req, resp)
}

func (noOp) Destroy() error { return nil }
