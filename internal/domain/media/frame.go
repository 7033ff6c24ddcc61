package media

// Frame is one decoded picture handed from a frame source to an encoder.
// Pix holds packed RGB24 rows; only encoders look inside it.
type Frame struct {
	Seq    uint64
	Width  int
	Height int
	Pix    []byte
}

// Len reports the payload size in bytes.
func (f Frame) Len() int {
	return len(f.Pix)
}
