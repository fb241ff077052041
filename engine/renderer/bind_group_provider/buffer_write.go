package bind_group_provider

// BufferWrite describes one queued write into the buffer stored at Binding on Provider.
type BufferWrite struct {
	Provider BindGroupProvider
	Binding  int
	Offset   uint64
	Data     []byte
}

// End returns the byte offset just past the written range.
func (w BufferWrite) End() uint64 {
	return w.Offset + uint64(len(w.Data))
}
