package emitter

type DataBits int

func (d DataBits) Int() int {
	return int(d)
}

// Byte is the form github.com/tarm/serial expects.
func (d DataBits) Byte() byte {
	return byte(d)
}

const (
	DataBits5 DataBits = 5
	DataBits6 DataBits = 6
	DataBits7 DataBits = 7
	DataBits8 DataBits = 8
)
