package math

// NewTransform is the identity transform with no parent.
func NewTransform() *Transform {
	return NewTransformFromPosition(NewVec3Zero())
}

func NewTransformFromPosition(position Vec3) *Transform {
	return &Transform{
		Position: position,
		Rotation: NewQuatIdentity(),
		Scale:    NewVec3One(),
		IsDirty:  true,
	}
}

func (t *Transform) SetPosition(position Vec3) {
	t.Position = position
	t.IsDirty = true
}

func (t *Transform) Translate(translation Vec3) {
	t.Position = t.Position.Add(translation)
	t.IsDirty = true
}

func (t *Transform) SetRotation(rotation Quaternion) {
	t.Rotation = rotation
	t.IsDirty = true
}

// Rotate appends rotation after the current one.
func (t *Transform) Rotate(rotation Quaternion) {
	t.Rotation = t.Rotation.Mul(rotation)
	t.IsDirty = true
}

func (t *Transform) SetScale(scale Vec3) {
	t.Scale = scale
	t.IsDirty = true
}

// GetLocal returns scale, then rotation, then translation. The matrix is cached until a setter runs.
func (t *Transform) GetLocal() Mat4 {
	if t == nil {
		return NewMat4Identity()
	}
	if t.IsDirty {
		t.Local = NewMat4TRS(t.Position, t.Rotation, t.Scale)
		t.IsDirty = false
	}
	return t.Local
}

// GetWorld applies the local matrix first, then every parent up the chain.
func (t *Transform) GetWorld() Mat4 {
	if t == nil {
		return NewMat4Identity()
	}
	if t.Parent == nil {
		return t.GetLocal()
	}
	return t.GetLocal().Mul(t.Parent.GetWorld())
}
