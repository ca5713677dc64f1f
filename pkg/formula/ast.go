package formula

// AST node kinds. The parser produces the full grammar; the compile step
// rejects nodes outside the whitelist of the chosen mode.
type node interface {
	isNode()
}

type numberNode struct {
	value float64
}

type stringNode struct {
	value string
}

type identNode struct {
	name string
}

// attrNode is entity.<name> access, extended mode only.
type attrNode struct {
	name string
}

type binaryNode struct {
	op    tokenKind
	left  node
	right node
}

// compareNode covers == != < <= > >= in "not in".
type compareNode struct {
	op      tokenKind
	negated bool // "not in"
	left    node
	right   node
}

type boolNode struct {
	op    tokenKind // tokAnd or tokOr
	terms []node
}

type notNode struct {
	operand node
}

type unaryNode struct {
	op      tokenKind // tokPlus or tokMinus
	operand node
}

// ternaryNode is `then if cond else els`.
type ternaryNode struct {
	cond node
	then node
	els  node
}

type callNode struct {
	fn   string
	args []node
}

type listNode struct {
	elems []node
}

func (numberNode) isNode()  {}
func (stringNode) isNode()  {}
func (identNode) isNode()   {}
func (attrNode) isNode()    {}
func (binaryNode) isNode()  {}
func (compareNode) isNode() {}
func (boolNode) isNode()    {}
func (notNode) isNode()     {}
func (unaryNode) isNode()   {}
func (ternaryNode) isNode() {}
func (callNode) isNode()    {}
func (listNode) isNode()    {}
