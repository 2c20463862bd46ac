package service

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sakif/microblog/internal/apperror"
	"github.com/sakif/microblog/internal/model"
	"github.com/sakif/microblog/internal/repository"
)

// recommendedWindow is how far back the recommended feed looks.
const recommendedWindow = 7 * 24 * time.Hour

// TweetService handles tweets, likes, and replies.
type TweetService struct {
	tweets  repository.TweetRepository
	likes   repository.LikeRepository
	replies repository.ReplyRepository
	follows repository.FollowRepository
	users   repository.UserRepository
	locks   keyedMutex
	logger  *slog.Logger
	now     func() time.Time
}

// NewTweetService creates a TweetService with all required dependencies.
func NewTweetService(
	tweets repository.TweetRepository,
	likes repository.LikeRepository,
	replies repository.ReplyRepository,
	follows repository.FollowRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *TweetService {
	return &TweetService{
		tweets:  tweets,
		likes:   likes,
		replies: replies,
		follows: follows,
		users:   users,
		logger:  logger,
		now:     time.Now,
	}
}

// ReplyItem is a reply together with its author, as the tweet detail
// endpoint returns it.
type ReplyItem struct {
	model.Reply
	User model.PublicUser `json:"user"`
}

// TweetDetail is a single tweet with its author, like state, and the
// full reply thread (oldest first).
type TweetDetail struct {
	model.FeedItem
	Replies []ReplyItem `json:"replies"`
}

// LikeState is the outcome of a like mutation: the viewer's resulting
// flag and the tweet's total.
type LikeState struct {
	Liked      bool `json:"liked"`
	LikesCount int  `json:"likesCount"`
}

// Create posts a new tweet. Content must be 1–280 characters after
// trimming; the limit counts runes, not bytes.
func (s *TweetService) Create(ctx context.Context, userID, content string) (*model.FeedItem, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "tweet content is required")
	}
	if utf8.RuneCountInString(content) > model.MaxTweetLength {
		return nil, apperror.ValidationFailed("content",
			fmt.Sprintf("tweet content must be at most %d characters", model.MaxTweetLength))
	}

	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	tweet := &model.Tweet{Content: content, UserID: userID}
	if err := s.tweets.Create(ctx, tweet); err != nil {
		return nil, err
	}

	s.logger.Info("tweet created",
		slog.String("tweetID", tweet.ID),
		slog.String("userID", userID),
	)

	return &model.FeedItem{Tweet: *tweet, User: author.Public()}, nil
}

// Feed returns the global timeline, newest first. viewerID may be empty
// (anonymous viewers see isLiked=false everywhere).
func (s *TweetService) Feed(ctx context.Context, viewerID string) ([]model.FeedItem, error) {
	tweets, err := s.tweets.List(ctx)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, viewerID, tweets)
}

// FeedByUser returns one author's tweets, newest first. An unknown author
// yields an empty feed, not an error.
func (s *TweetService) FeedByUser(ctx context.Context, viewerID, userID string) ([]model.FeedItem, error) {
	tweets, err := s.tweets.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, viewerID, tweets)
}

// FollowingFeed returns tweets by everyone the viewer follows, plus the
// viewer's own, newest first.
func (s *TweetService) FollowingFeed(ctx context.Context, viewerID string) ([]model.FeedItem, error) {
	ids, err := s.follows.FollowingIDs(ctx, viewerID)
	if err != nil {
		return nil, err
	}
	ids = append(ids, viewerID)

	tweets, err := s.tweets.ListByUsers(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.assemble(ctx, viewerID, tweets)
}

// RecommendedFeed returns the last week's tweets ranked by like count.
// Ties keep recency order (the repository already returns newest first
// and the sort is stable).
func (s *TweetService) RecommendedFeed(ctx context.Context, viewerID string) ([]model.FeedItem, error) {
	cutoff := s.now().Add(-recommendedWindow)
	tweets, err := s.tweets.ListSince(ctx, cutoff)
	if err != nil {
		return nil, err
	}

	items, err := s.assemble(ctx, viewerID, tweets)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].LikesCount > items[j].LikesCount
	})
	return items, nil
}

// Get returns a single tweet with its author, like state, and replies.
func (s *TweetService) Get(ctx context.Context, viewerID, tweetID string) (*TweetDetail, error) {
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return nil, err
	}

	items, err := s.assemble(ctx, viewerID, []model.Tweet{*tweet})
	if err != nil {
		return nil, err
	}

	replies, err := s.Replies(ctx, tweetID)
	if err != nil {
		return nil, err
	}

	return &TweetDetail{FeedItem: items[0], Replies: replies}, nil
}

// Delete removes a tweet. Only the author may delete; anyone else gets
// Forbidden. Likes and replies go with it via the cascade.
func (s *TweetService) Delete(ctx context.Context, userID, tweetID string) error {
	tweet, err := s.tweets.GetByID(ctx, tweetID)
	if err != nil {
		return err
	}
	if tweet.UserID != userID {
		return apperror.Forbidden("only the author can delete a tweet")
	}

	if err := s.tweets.Delete(ctx, tweetID); err != nil {
		return err
	}

	s.logger.Info("tweet deleted",
		slog.String("tweetID", tweetID),
		slog.String("userID", userID),
	)
	return nil
}

// ToggleLike flips the viewer's like on a tweet and reports the new state.
//
// The exists-check and the following insert or delete are a check-then-act
// pair, so the whole toggle runs under a per-(user,tweet) lock. Two
// concurrent toggles serialize; the second one sees the first one's write.
// The likes table's UNIQUE(tweet_id, user_id) backs this up.
func (s *TweetService) ToggleLike(ctx context.Context, userID, tweetID string) (*LikeState, error) {
	unlock := s.locks.Lock(userID + ":" + tweetID)
	defer unlock()

	liked, err := s.likes.Exists(ctx, userID, tweetID)
	if err != nil {
		return nil, err
	}

	if liked {
		if err := s.likes.Delete(ctx, userID, tweetID); err != nil {
			return nil, err
		}
	} else {
		like := &model.Like{TweetID: tweetID, UserID: userID}
		if err := s.likes.Create(ctx, like); err != nil {
			return nil, err
		}
	}

	count, err := s.likes.CountByTweet(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	return &LikeState{Liked: !liked, LikesCount: count}, nil
}

// Unlike removes the viewer's like. Unliking a tweet that was never liked
// is a no-op; unliking a missing tweet is NotFound.
func (s *TweetService) Unlike(ctx context.Context, userID, tweetID string) (*LikeState, error) {
	if _, err := s.tweets.GetByID(ctx, tweetID); err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(userID + ":" + tweetID)
	defer unlock()

	if err := s.likes.Delete(ctx, userID, tweetID); err != nil {
		return nil, err
	}

	count, err := s.likes.CountByTweet(ctx, tweetID)
	if err != nil {
		return nil, err
	}
	return &LikeState{Liked: false, LikesCount: count}, nil
}

// CreateReply posts a reply on a tweet.
func (s *TweetService) CreateReply(ctx context.Context, userID, tweetID, content string) (*ReplyItem, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apperror.ValidationFailed("content", "reply content is required")
	}

	author, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	reply := &model.Reply{Content: content, TweetID: tweetID, UserID: userID}
	if err := s.replies.Create(ctx, reply); err != nil {
		return nil, err
	}

	s.logger.Info("reply created",
		slog.String("replyID", reply.ID),
		slog.String("tweetID", tweetID),
	)

	return &ReplyItem{Reply: *reply, User: author.Public()}, nil
}

// Replies returns a tweet's reply thread, oldest first, with authors.
func (s *TweetService) Replies(ctx context.Context, tweetID string) ([]ReplyItem, error) {
	replies, err := s.replies.ListByTweet(ctx, tweetID)
	if err != nil {
		return nil, err
	}

	authors := map[string]model.PublicUser{}
	items := make([]ReplyItem, 0, len(replies))
	for _, r := range replies {
		author, err := s.author(ctx, authors, r.UserID)
		if err != nil {
			return nil, err
		}
		items = append(items, ReplyItem{Reply: r, User: author})
	}
	return items, nil
}

// assemble turns raw tweets into feed items: author, like count, and the
// viewer's like flag. Authors are fetched once per distinct user.
func (s *TweetService) assemble(ctx context.Context, viewerID string, tweets []model.Tweet) ([]model.FeedItem, error) {
	authors := map[string]model.PublicUser{}
	items := make([]model.FeedItem, 0, len(tweets))
	for _, t := range tweets {
		author, err := s.author(ctx, authors, t.UserID)
		if err != nil {
			return nil, err
		}

		count, err := s.likes.CountByTweet(ctx, t.ID)
		if err != nil {
			return nil, err
		}

		isLiked := false
		if viewerID != "" {
			isLiked, err = s.likes.Exists(ctx, viewerID, t.ID)
			if err != nil {
				return nil, err
			}
		}

		items = append(items, model.FeedItem{
			Tweet:      t,
			User:       author,
			LikesCount: count,
			IsLiked:    isLiked,
		})
	}
	return items, nil
}

func (s *TweetService) author(ctx context.Context, cache map[string]model.PublicUser, userID string) (model.PublicUser, error) {
	if u, ok := cache[userID]; ok {
		return u, nil
	}
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return model.PublicUser{}, fmt.Errorf("loading tweet author %s: %w", userID, err)
	}
	pub := user.Public()
	cache[userID] = pub
	return pub, nil
}
