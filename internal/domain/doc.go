// Package domain contains the core review-engine entities: reviewable items,
// their scheduling state, review events and quality ratings. It is
// independent of any storage or delivery mechanism.
package domain
