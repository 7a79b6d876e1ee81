package fiber

type Ctx struct{}

func (c *Ctx) Query(key string, defaultValue ...string) string { return "" }

func (c *Ctx) Queries() map[string]string { return nil }

func (c *Ctx) Params(key string, defaultValue ...string) string { return "" }
