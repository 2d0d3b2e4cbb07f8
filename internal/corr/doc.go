// Package corr implements the correlation learner: a cascade of center-pivot
// 4D convolution blocks that encodes a hypercorrelation volume
// (batch, channel, qRow, qCol, kRow, kCol) and pools it into one logit per
// batch element.
//
// The default configuration mirrors the reference network: four blocks of
// widths 16, 32, 64 and 128 over a 9-channel input, with query and key
// strides of 2 in the first stage of block 1 and the last stages of blocks 2
// and 3, followed by a Linear(128,128) -> ReLU -> Linear(128,1) head.
//
// An optional DistancePrior can be multiplied into the volume before
// encoding. Pretrained weights are loaded by parameter name from SafeTensors
// files, see LoadWeights.
package corr
