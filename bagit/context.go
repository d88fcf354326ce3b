package bagit

// BagContext is the narrow capability a ManifestFile or FetchTable
// needs from its owning Bag: path resolution and the name of the
// tag-file character encoding. Children depend on this interface rather than holding
// a reference back to *Bag, so there is no Bag <-> child cycle and no
// lifetime the child must manage.
type BagContext interface {
	Root() string
	MakeAbsolute(p string) string
	MakeRelative(p string) string
	Encoding() string
}

// bagContext is the concrete BagContext a *Bag hands to its children.
type bagContext struct {
	bag *Bag
}

func (c bagContext) Root() string               { return c.bag.root }
func (c bagContext) MakeAbsolute(p string) string { return MakeAbsolute(c.bag.root, p) }
func (c bagContext) MakeRelative(p string) string { return MakeRelative(c.bag.root, p) }
func (c bagContext) Encoding() string             { return c.bag.encoding }
