package otshape

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	ot "github.com/go-text/typesetting/font/opentype"
	"github.com/go-text/typesetting/harfbuzz"
)

// Feature range bounds meaning "the whole buffer".
const (
	FeatureGlobalStart = 0
	FeatureGlobalEnd   = math.MaxUint32
)

// Feature is a user request to set an OpenType feature to Value for the
// characters with clusters in [Start, End).
type Feature struct {
	Tag        ot.Tag
	Value      uint32
	Start, End uint32
}

// IsGlobal is true if the feature covers the whole buffer.
func (f Feature) IsGlobal() bool {
	return f.Start == FeatureGlobalStart && f.End == FeatureGlobalEnd
}

// String formats f in the syntax accepted by ParseFeature.
func (f Feature) String() string {
	var sb strings.Builder
	if f.Value == 0 {
		sb.WriteByte('-')
	}
	sb.WriteString(strings.TrimRight(tagString(f.Tag), " "))
	if f.Start != FeatureGlobalStart || f.End != FeatureGlobalEnd {
		sb.WriteByte('[')
		if f.End == f.Start+1 {
			sb.WriteString(strconv.FormatUint(uint64(f.Start), 10))
		} else {
			if f.Start != FeatureGlobalStart {
				sb.WriteString(strconv.FormatUint(uint64(f.Start), 10))
			}
			sb.WriteByte(':')
			if f.End != FeatureGlobalEnd {
				sb.WriteString(strconv.FormatUint(uint64(f.End), 10))
			}
		}
		sb.WriteByte(']')
	}
	if f.Value > 1 {
		fmt.Fprintf(&sb, "=%d", f.Value)
	}
	return sb.String()
}

func tagString(t ot.Tag) string {
	return string([]byte{byte(t >> 24), byte(t >> 16), byte(t >> 8), byte(t)})
}

// ParseFeature parses a feature string. Accepted forms are
//
//	kern, +kern      enable globally
//	-kern            disable globally
//	kern=0, kern=2   set a value (also "on"/"off")
//	kern[3:5]        enable for clusters 3 and 4
//	kern[3]          enable for cluster 3 only
//	kern[3:]=0       disable from cluster 3 on
//
// Tags may be quoted and shorter than four characters. The grammar is the
// one of harfbuzz.ParseFeature, including the CSS forms like `"liga" off`.
func ParseFeature(s string) (Feature, error) {
	hf, err := harfbuzz.ParseFeature(s)
	if err != nil {
		return Feature{}, fmt.Errorf("%w: %q: %v", ErrFeatureSyntax, s, err)
	}
	f := Feature{
		Tag:   hf.Tag,
		Value: hf.Value,
		Start: uint32(hf.Start),
		End:   FeatureGlobalEnd,
	}
	if hf.End != harfbuzz.FeatureGlobalEnd {
		f.End = uint32(hf.End)
	}
	return f, nil
}

// ParseFeatures parses a comma separated list of features.
func ParseFeatures(list string) ([]Feature, error) {
	var features []Feature
	for _, item := range strings.Split(list, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		f, err := ParseFeature(item)
		if err != nil {
			return nil, err
		}
		features = append(features, f)
	}
	return features, nil
}
