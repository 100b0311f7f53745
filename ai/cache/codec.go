package cache

import (
	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
)

// vectorSer serializes embedding vectors in the MUS format. Raw float32
// encoding keeps a cached vector at 4 bytes per component plus a short
// length prefix.
var vectorSer = ord.NewSliceSer[float32](raw.Float32)

// marshalVector serializes a vector to bytes.
func marshalVector(vector []float32) []byte {
	buf := make([]byte, vectorSer.Size(vector))
	vectorSer.Marshal(vector, buf)
	return buf
}

// unmarshalVector deserializes a vector from bytes.
func unmarshalVector(data []byte) ([]float32, error) {
	vector, _, err := vectorSer.Unmarshal(data)
	return vector, err
}
