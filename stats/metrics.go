package stats

import (
	"slices"

	"github.com/brettboylen/reaction-tracker/models"
)

const (
	defaultRecentLimit      = 10
	defaultTopVideosLimit   = 10
	defaultTopChannelsLimit = 10
)

// Compute derives the summary metrics for a list of reactions.
// It never modifies the input and always returns non-nil lists.
//
// Entries with equal sort keys keep the order in which they first appear in
// the input, so the same input always produces the same metrics.
func Compute(reactions []models.Reaction) models.Metrics {
	videoByID := make(map[string]models.Video)

	// target ids in first-seen order; map iteration order is random
	targetIDs := make([]string, 0)
	countByTargetID := make(map[string]int)

	channelIDs := make([]string, 0)
	channelByID := make(map[string]*models.Channel)

	for _, r := range reactions {
		// last write wins for a given video id
		videoByID[r.Reaction.ID] = r.Reaction
		videoByID[r.ReactionTo.ID] = r.ReactionTo

		if _, seen := countByTargetID[r.ReactionTo.ID]; !seen {
			targetIDs = append(targetIDs, r.ReactionTo.ID)
		}
		countByTargetID[r.ReactionTo.ID]++

		// channels without a title are ignored
		if r.Reaction.ChannelTitle == "" {
			continue
		}
		channel, ok := channelByID[r.Reaction.ChannelID]
		if !ok {
			channel = &models.Channel{
				ID:    r.Reaction.ChannelID,
				Title: r.Reaction.ChannelTitle,
			}
			channelByID[r.Reaction.ChannelID] = channel
			channelIDs = append(channelIDs, r.Reaction.ChannelID)
		}
		channel.Count++
	}

	return models.Metrics{
		Reactions:   len(reactions),
		Videos:      len(videoByID),
		Channels:    len(channelByID),
		Recent:      recentVideos(reactions, defaultRecentLimit),
		TopVideos:   topVideos(targetIDs, countByTargetID, videoByID, defaultTopVideosLimit),
		TopChannels: topChannels(channelIDs, channelByID, defaultTopChannelsLimit),
	}
}

// recentVideos returns the reacting videos of the newest reactions
func recentVideos(reactions []models.Reaction, limit int) []models.Video {
	sorted := slices.Clone(reactions)
	slices.SortStableFunc(sorted, func(a, b models.Reaction) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	sorted = truncate(sorted, limit)
	videos := make([]models.Video, 0, len(sorted))
	for _, r := range sorted {
		videos = append(videos, r.Reaction)
	}
	return videos
}

// topVideos returns the most reacted to videos
func topVideos(ids []string, counts map[string]int, videoByID map[string]models.Video, limit int) []models.TopVideo {
	top := make([]models.TopVideo, 0, len(ids))
	for _, id := range ids {
		top = append(top, models.TopVideo{
			Video: videoByID[id],
			Count: counts[id],
		})
	}

	slices.SortStableFunc(top, func(a, b models.TopVideo) int {
		return b.Count - a.Count
	})
	return truncate(top, limit)
}

// topChannels returns the channels with the most reactions
func topChannels(ids []string, channelByID map[string]*models.Channel, limit int) []models.Channel {
	top := make([]models.Channel, 0, len(ids))
	for _, id := range ids {
		top = append(top, *channelByID[id])
	}

	slices.SortStableFunc(top, func(a, b models.Channel) int {
		return b.Count - a.Count
	})
	return truncate(top, limit)
}

func truncate[T any](items []T, limit int) []T {
	if len(items) > limit {
		return items[:limit]
	}
	return items
}
