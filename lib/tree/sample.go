package tree

import (
	"github.com/benz9527/xtree/lib/infra"
)

var (
	sampleKeys   = []int{36, 27, 58, 6, 53, 64, 40, 46, 11, 19, 74, 2, 31}
	sampleBinSeq = []int{1, 2, 3, 4, -1, 5, 6, -1, 7, 8}
)

// GenSampleTree builds the canned example of a discipline, the
// result always passes CheckValidity.
func GenSampleTree[K infra.Number](d Discipline) (*Tree[K], error) {
	t, err := NewTree[K](d)
	if err != nil {
		return nil, err
	}
	if d == BinTreeType {
		seq := make([]SeqItem[K], 0, len(sampleBinSeq))
		for _, v := range sampleBinSeq {
			if v < 0 {
				seq = append(seq, SeqNil[K]())
				continue
			}
			seq = append(seq, SeqVal(K(v)))
		}
		t.BuildFromBinSequence(seq)
		return t, nil
	}
	for _, v := range sampleKeys {
		t.Insert(K(v))
	}
	t.ResetHot()
	return t, nil
}
