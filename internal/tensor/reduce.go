package tensor

// SumAxes sums over every axis from `from` to the last one.
// With keepDims the reduced axes remain as extent-1 dimensions.
func (t *Tensor[T]) SumAxes(from int, keepDims bool) (*Tensor[T], error) {
	rank := len(t.shape)
	if from < 0 || from >= rank {
		return nil, axisError("sum", from, rank)
	}

	outer := Shape(t.shape[:from]).NumElements()
	inner := Shape(t.shape[from:]).NumElements()

	outShape := append(Shape(nil), t.shape[:from]...)
	if keepDims {
		for i := from; i < rank; i++ {
			outShape = append(outShape, 1)
		}
	}
	if len(outShape) == 0 {
		outShape = Shape{1}
	}

	out := Zeros[T](outShape, t.device)
	for o := 0; o < outer; o++ {
		var sum T
		for _, v := range t.data[o*inner : (o+1)*inner] {
			sum += v
		}
		out.data[o] = sum
	}
	return out, nil
}

// MeanAxes averages over every axis from `from` to the last one.
func (t *Tensor[T]) MeanAxes(from int, keepDims bool) (*Tensor[T], error) {
	out, err := t.SumAxes(from, keepDims)
	if err != nil {
		return nil, err
	}
	inner := Shape(t.shape[from:]).NumElements()
	scaleBlock(out.data, 1/float64(inner))
	return out, nil
}
