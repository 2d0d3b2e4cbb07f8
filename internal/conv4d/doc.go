// Package conv4d implements center-pivot 4D convolution over hypercorrelation
// volumes.
//
// A hypercorrelation volume is a rank-6 tensor laid out as
//
//	(batch, channel, qRow, qCol, kRow, kCol)
//
// where (qRow, qCol) index the query grid and (kRow, kCol) the key grid.
// A true 4D convolution over the four spatial axes is replaced by the sum of
// two 2D convolutions: one over the query axes, batched across key positions,
// and one over the key axes, batched across query positions. When a branch
// strides the axis pair it convolves, the other branch subsamples that same
// pair with a Pruner so both branch outputs land on the same grid.
package conv4d
