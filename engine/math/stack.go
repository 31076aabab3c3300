package math

/** @brief The deepest nesting supported by a MatrixStack. */
const MATRIX_STACK_MAX_DEPTH = 64

/**
 * @brief A stack of world matrices for hierarchical drawing. The bottom entry
 * is always present; Enter/Exit pairs are scoped with defer:
 *
 *	defer stack.Exit(stack.Enter(local))
 */
type MatrixStack struct {
	entries [MATRIX_STACK_MAX_DEPTH]Mat4
	depth   int
}

/**
 * @brief Restores a MatrixStack to the depth it had when the token was issued.
 */
type MatrixStackToken struct {
	depth int
}

func NewMatrixStack() *MatrixStack {
	s := &MatrixStack{}
	s.Reset()
	return s
}

// Reset drops every entry and leaves the identity on top.
func (s *MatrixStack) Reset() {
	s.depth = 1
	s.entries[0] = NewMat4Identity()
}

func (s *MatrixStack) Top() Mat4 {
	return s.entries[s.depth-1]
}

func (s *MatrixStack) Depth() int {
	return s.depth
}

// Push places m on top, replacing the inherited transform. Returns false when full.
func (s *MatrixStack) Push(m Mat4) bool {
	if s.depth >= MATRIX_STACK_MAX_DEPTH {
		return false
	}
	s.entries[s.depth] = m
	s.depth++
	return true
}

// PushLocal composes local with the current top (local first, then parent).
func (s *MatrixStack) PushLocal(local Mat4) bool {
	return s.Push(local.Mul(s.Top()))
}

// Pop removes the top entry. The bottom entry is never removed.
func (s *MatrixStack) Pop() {
	if s.depth > 1 {
		s.depth--
	}
}

/**
 * @brief Composes local onto the stack and returns a token for Exit. When the
 * stack is full nothing is pushed and Exit is still safe.
 */
func (s *MatrixStack) Enter(local Mat4) MatrixStackToken {
	token := MatrixStackToken{depth: s.depth}
	s.PushLocal(local)
	return token
}

// Exit restores the depth recorded by Enter.
func (s *MatrixStack) Exit(token MatrixStackToken) {
	if token.depth >= 1 && token.depth <= s.depth {
		s.depth = token.depth
	}
}
