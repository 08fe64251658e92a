package dao

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
	"golang.org/x/xerrors"
	"gorm.io/gorm"

	"github.com/rqzrqh/nft_auction/common"
	"github.com/rqzrqh/nft_auction/host"
	"github.com/rqzrqh/nft_auction/model"
	"github.com/rqzrqh/nft_auction/util"
)

const (
	CacheTimeout time.Duration = 3600 * time.Second
)

var ErrCacheMiss = xerrors.New("auction not cached")

type AuctionDigest struct {
	Address       string          `json:"address"`
	Seller        string          `json:"seller"`
	NftMint       string          `json:"nft_mint"`
	NftCollection string          `json:"nft_collection"`
	Bidder        string          `json:"bidder"`
	CurrentBid    decimal.Decimal `json:"current_bid"`
	StartPrice    decimal.Decimal `json:"start_price"`
	EndTime       uint64          `json:"end_time"`
}

type SettlementDigest struct {
	RoyaltyPool    decimal.Decimal `json:"royalty_pool"`
	RoyaltiesPaid  decimal.Decimal `json:"royalties_paid"`
	RoyaltySkipped decimal.Decimal `json:"royalty_skipped"`
	PlatformFee    decimal.Decimal `json:"platform_fee"`
	SellerProceeds decimal.Decimal `json:"seller_proceeds"`
	Residual       decimal.Decimal `json:"residual"`
	Claimer        string          `json:"claimer"`
}

type AuctionNotify struct {
	Seq        uint64            `json:"seq"`
	Kind       string            `json:"kind"`
	Time       uint64            `json:"time"`
	Auction    AuctionDigest     `json:"auction"`
	Settlement *SettlementDigest `json:"settlement,omitempty"`
}

var auctionStateKey = "auction_state"
var auctionDigestKey = "auction_digest"
var auctionNotify = "auction_notify"

func BuildAuctionStateKey(addr string) string {
	return auctionStateKey + "_" + addr
}

func BuildAuctionDigestKey(addr string) string {
	return auctionDigestKey + "_" + addr
}

func BuildAuctionNotifyKey() string {
	return auctionNotify
}

func NewAuctionDigest(address solana.PublicKey, rec *common.AuctionRecord) AuctionDigest {
	return AuctionDigest{
		Address:       address.String(),
		Seller:        rec.Seller.String(),
		NftMint:       rec.NftMint.String(),
		NftCollection: rec.NftCollection.String(),
		Bidder:        keyString(rec.Bidder),
		CurrentBid:    util.Decimal(rec.CurrentBid),
		StartPrice:    util.Decimal(rec.StartPrice),
		EndTime:       rec.EndTime,
	}
}

// Cache mirrors committed auction state into redis and publishes every
// committed transition. It is never consulted by a transition.
type Cache struct {
	rds *redis.Client
}

var _ host.Observer = (*Cache)(nil)

func NewCache(rds *redis.Client) *Cache {
	return &Cache{rds: rds}
}

func (c *Cache) Committed(ctx context.Context, ev host.Event) {
	addr := ev.Auction.String()
	digest := NewAuctionDigest(ev.Auction, &ev.Record)

	notify := AuctionNotify{Seq: ev.Seq, Kind: string(ev.Kind), Time: ev.Time, Auction: digest}
	if r := ev.Receipt; r != nil {
		notify.Settlement = &SettlementDigest{
			RoyaltyPool:    util.Decimal(r.Distribution.RoyaltyPool),
			RoyaltiesPaid:  util.Decimal(r.RoyaltiesPaid),
			RoyaltySkipped: util.Decimal(r.Skipped),
			PlatformFee:    util.Decimal(r.Distribution.PlatformFee),
			SellerProceeds: util.Decimal(r.Distribution.SellerProceeds),
			Residual:       util.Decimal(r.Residual),
			Claimer:        r.Claimer.String(),
		}
	}
	byteNotify, err := json.Marshal(notify)
	if err != nil {
		log.Errorw("marshal auction notify", "auction", addr, "err", err)
		return
	}

	pipe := c.rds.TxPipeline()
	defer pipe.Close()

	if ev.Destroyed() {
		pipe.Del(ctx, BuildAuctionStateKey(addr), BuildAuctionDigestKey(addr))
	} else if err := c.stage(ctx, pipe, ev.Auction, &ev.Record); err != nil {
		log.Errorw("stage auction cache", "auction", addr, "err", err)
		return
	}
	pipe.Publish(ctx, BuildAuctionNotifyKey(), string(byteNotify))

	if _, err := pipe.Exec(ctx); err != nil {
		pipe.Discard()
		// the database stays authoritative; readers fall back to it
		log.Warnw("update auction cache", "auction", addr, "seq", ev.Seq, "err", err)
	}
}

func (c *Cache) stage(ctx context.Context, pipe redis.Pipeliner, address solana.PublicKey, rec *common.AuctionRecord) error {
	raw, err := rec.MarshalBinary()
	if err != nil {
		return err
	}
	byteDigest, err := json.Marshal(NewAuctionDigest(address, rec))
	if err != nil {
		return err
	}
	addr := address.String()
	pipe.Set(ctx, BuildAuctionStateKey(addr), raw, CacheTimeout)
	pipe.Set(ctx, BuildAuctionDigestKey(addr), string(byteDigest), CacheTimeout)
	return nil
}

// GetAuction reads the cached record at address.
func (c *Cache) GetAuction(ctx context.Context, address solana.PublicKey) (*common.AuctionRecord, error) {
	raw, err := c.rds.Get(ctx, BuildAuctionStateKey(address.String())).Bytes()
	if xerrors.Is(err, redis.Nil) {
		return nil, xerrors.Errorf("%v: %w", address, ErrCacheMiss)
	}
	if err != nil {
		return nil, err
	}
	rec := new(common.AuctionRecord)
	if err := rec.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	return rec, nil
}

// GetAuctionDigest reads the cached JSON digest at address.
func (c *Cache) GetAuctionDigest(ctx context.Context, address solana.PublicKey) (*AuctionDigest, error) {
	s, err := c.rds.Get(ctx, BuildAuctionDigestKey(address.String())).Result()
	if xerrors.Is(err, redis.Nil) {
		return nil, xerrors.Errorf("%v: %w", address, ErrCacheMiss)
	}
	if err != nil {
		return nil, err
	}
	var d AuctionDigest
	if err := json.Unmarshal([]byte(s), &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// LookupAuction reads the cache and falls back to the database.
func LookupAuction(ctx context.Context, db *gorm.DB, c *Cache, address solana.PublicKey) (*common.AuctionRecord, bool, error) {
	if c != nil {
		rec, err := c.GetAuction(ctx, address)
		if err == nil {
			return rec, true, nil
		}
		if !xerrors.Is(err, ErrCacheMiss) {
			log.Warnw("read auction cache", "auction", address, "err", err)
		}
	}
	rec, err := GetAuction(db.WithContext(ctx), address)
	return rec, false, err
}

const warmBatch = 500

// WarmCache loads every stored auction into the cache.
func (c *Cache) WarmCache(ctx context.Context, db *gorm.DB) (int, error) {
	startTime := time.Now()

	var ids []uint64
	if err := db.WithContext(ctx).Model(&model.Auction{}).Order("id asc").Pluck("id", &ids).Error; err != nil {
		return 0, err
	}

	grp, gctx := errgroup.WithContext(ctx)
	for begin := 0; begin < len(ids); begin += warmBatch {
		end := begin + warmBatch
		if end > len(ids) {
			end = len(ids)
		}
		batch := ids[begin:end]

		grp.Go(func() error {
			var rows []model.Auction
			if err := db.WithContext(gctx).Where("id in (?)", batch).Find(&rows).Error; err != nil {
				return err
			}

			pipe := c.rds.TxPipeline()
			defer pipe.Close()
			for i := range rows {
				address, err := solana.PublicKeyFromBase58(rows[i].Address)
				if err != nil {
					return err
				}
				rec, err := recordFromRow(&rows[i])
				if err != nil {
					return err
				}
				if err := c.stage(gctx, pipe, address, rec); err != nil {
					return err
				}
			}
			_, err := pipe.Exec(gctx)
			return err
		})
	}
	if err := grp.Wait(); err != nil {
		return 0, err
	}

	log.Infow("WarmCache", "auctions", len(ids), "duration", time.Since(startTime).String())
	return len(ids), nil
}
