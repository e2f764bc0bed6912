package container

// ContextualBuilder implements the fluent contextual binding API on top of
// argument bindings.
//
//	// Laravel: $app->when(PhotoController::class)->needs('$storagePath')->give('/tmp/photos')
//	c.When("PhotoController").Needs("storagePath").Give("/tmp/photos")
type ContextualBuilder struct {
	container *Container
	concrete  string
	needs     string
}

// When starts a contextual binding chain for the class concrete.
func (c *Container) When(concrete string) *ContextualBuilder {
	return &ContextualBuilder{container: c, concrete: concrete}
}

// Needs names the constructor parameter of the concrete class.
func (b *ContextualBuilder) Needs(param string) *ContextualBuilder {
	b.needs = param
	return b
}

// Give binds value, a plain value or a factory, to the parameter. A previous
// contextual binding for the same parameter is replaced.
func (b *ContextualBuilder) Give(value any) error {
	return b.container.BindArgument(b.concrete, b.needs, value, Overwrite(true))
}

// GiveSingleton is Give with the factory result cached after first use.
func (b *ContextualBuilder) GiveSingleton(value any) error {
	return b.container.BindSingletonArgument(b.concrete, b.needs, value, Overwrite(true))
}

// GiveClass makes the parameter resolve by building class.
//
//	c.When("ReportJob").Needs("storage").GiveClass("S3Storage")
func (b *ContextualBuilder) GiveClass(class string) error {
	return b.Give(func(c *Container) (any, error) {
		return c.Make(class)
	})
}
