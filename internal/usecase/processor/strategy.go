package processor

import "infospace/internal/domain/entity"

const (
	smallFileThreshold = 5 * 1024 * 1024  // 5 MB
	largeFileThreshold = 10 * 1024 * 1024 // 10 MB
)

// Strategy decides whether a newly-created asset should be processed
// inline (same request) or handed to a background worker, layering a user
// override on top of content-based heuristics and a system default.
type Strategy struct {
	DefaultImmediate bool
}

func NewStrategy(defaultImmediate bool) *Strategy {
	return &Strategy{DefaultImmediate: defaultImmediate}
}

// ShouldProcessImmediately decides per spec:
//  1. explicit user preference wins outright
//  2. files over largeFileThreshold always go to background
//  3. CSV/PDF between small and large thresholds go to background (heavy
//     processing under real load)
//  4. files under smallFileThreshold go immediate
//  5. web scraping goes immediate regardless of size (no file to measure)
//  6. CSV/PDF with no size information default to background (conservative)
//  7. otherwise fall back to the system default
func (s *Strategy) ShouldProcessImmediately(asset *entity.Asset, userPreference *bool, fileSize *int64) bool {
	if userPreference != nil {
		return *userPreference
	}

	if fileSize != nil {
		size := *fileSize
		if size > largeFileThreshold {
			return false
		}
		if size > smallFileThreshold && isHeavyProcessing(asset.Kind) {
			return false
		}
		if size < smallFileThreshold {
			return true
		}
	}

	if asset.Kind == entity.AssetKindWeb {
		return true
	}
	if isHeavyProcessing(asset.Kind) {
		return false
	}
	return s.DefaultImmediate
}

// EstimateProcessingTime returns a human-readable estimate for UI feedback.
func (s *Strategy) EstimateProcessingTime(asset *entity.Asset, fileSize *int64) string {
	if fileSize != nil && *fileSize > largeFileThreshold {
		return "several minutes"
	}

	switch asset.Kind {
	case entity.AssetKindPDF:
		if fileSize != nil && *fileSize > smallFileThreshold {
			return "~1-2 minutes"
		}
		return "~30 seconds"
	case entity.AssetKindCSV, entity.AssetKindExcel:
		if fileSize != nil && *fileSize > smallFileThreshold {
			return "~2-5 minutes"
		}
		return "~10-30 seconds"
	case entity.AssetKindWeb:
		return "< 5 seconds"
	default:
		return "< 1 minute"
	}
}

func isHeavyProcessing(kind entity.AssetKind) bool {
	return kind == entity.AssetKindCSV || kind == entity.AssetKindPDF || kind == entity.AssetKindExcel
}
