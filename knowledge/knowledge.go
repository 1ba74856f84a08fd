package knowledge

// Category names one code catalog within a knowledge base.
type Category string

const (
	AssetCodes    Category = "assets"
	ExpenseSinks  Category = "expenses"
	IncomeSources Category = "income"
	TaxTypes      Category = "tax"
)

// Base is a collection of code trees keyed by category, typically sourced
// from a data plugin and handed to the resolver as plain data.
type Base struct {
	trees map[Category]*Tree
}

// New builds a knowledge base from catalog data, validating every tree.
func New(data map[Category]TreeData) (*Base, error) {
	trees := make(map[Category]*Tree, len(data))
	for category, td := range data {
		tree, err := NewTree(td)
		if err != nil {
			return nil, err
		}
		trees[category] = tree
	}
	return &Base{trees: trees}, nil
}

// Tree returns the tree for a category, or nil when the category is absent.
func (b *Base) Tree(category Category) *Tree {
	if b == nil {
		return nil
	}
	return b.trees[category]
}

// Descendants expands a code into itself plus all more specific codes in the
// category. Absent categories or codes yield just the code.
func (b *Base) Descendants(category Category, code string) []string {
	tree := b.Tree(category)
	if tree == nil {
		return []string{code}
	}
	return tree.Descendants(code)
}

// Ancestors returns the path from a code up to its category root. Absent
// categories or codes yield just the code.
func (b *Base) Ancestors(category Category, code string) []string {
	tree := b.Tree(category)
	if tree == nil {
		return []string{code}
	}
	return tree.Ancestors(code)
}
