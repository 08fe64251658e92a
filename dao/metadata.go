package dao

import (
	"encoding/json"

	"github.com/gagliardetto/solana-go"
	"golang.org/x/xerrors"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rqzrqh/nft_auction/model"
	"github.com/rqzrqh/nft_auction/oracle"
)

// MetadataStore is the registry of asset metadata kept in the database.
type MetadataStore struct {
	db *gorm.DB
}

var _ oracle.Oracle = (*MetadataStore)(nil)

func NewMetadataStore(db *gorm.DB) *MetadataStore {
	return &MetadataStore{db: db}
}

// Put registers md under the canonical address of its mint, replacing any
// earlier record.
func (s *MetadataStore) Put(md oracle.Metadata) (*oracle.Metadata, error) {
	addr, err := oracle.MetadataAddress(md.Mint)
	if err != nil {
		return nil, err
	}
	md.Address = addr

	row := model.AssetMetadata{
		Address:              addr.String(),
		Mint:                 md.Mint.String(),
		SellerFeeBasisPoints: md.SellerFeeBasisPoints,
	}
	if md.Collection != nil {
		row.CollectionKey = md.Collection.Key.String()
		row.CollectionVerified = md.Collection.Verified
	}
	// a nil list marshals to the JSON null literal
	raw, err := json.Marshal(md.Creators)
	if err != nil {
		return nil, err
	}
	row.Creators = datatypes.JSON(raw)

	err = s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "mint"}},
		DoUpdates: clause.AssignmentColumns([]string{"address", "collection_key", "collection_verified", "creators", "seller_fee_basis_points"}),
	}).Create(&row).Error
	if err != nil {
		return nil, err
	}
	log.Infow("metadata registered", "mint", md.Mint, "address", addr, "creators", len(md.Creators))
	return &md, nil
}

func (s *MetadataStore) Resolve(mint solana.PublicKey) (*oracle.Metadata, error) {
	var row model.AssetMetadata
	err := s.db.Where("mint = ?", mint.String()).Take(&row).Error
	if xerrors.Is(err, gorm.ErrRecordNotFound) {
		return nil, xerrors.Errorf("%v: %w", mint, oracle.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return metadataFromRow(&row)
}

func metadataFromRow(row *model.AssetMetadata) (*oracle.Metadata, error) {
	addr, err := solana.PublicKeyFromBase58(row.Address)
	if err != nil {
		return nil, xerrors.Errorf("metadata %d address: %w", row.ID, err)
	}
	mint, err := solana.PublicKeyFromBase58(row.Mint)
	if err != nil {
		return nil, xerrors.Errorf("metadata %s mint: %w", row.Address, err)
	}
	md := &oracle.Metadata{
		Address:              addr,
		Mint:                 mint,
		SellerFeeBasisPoints: row.SellerFeeBasisPoints,
	}
	if row.CollectionKey != "" {
		key, err := solana.PublicKeyFromBase58(row.CollectionKey)
		if err != nil {
			return nil, xerrors.Errorf("metadata %s collection: %w", row.Address, err)
		}
		md.Collection = &oracle.Collection{Key: key, Verified: row.CollectionVerified}
	}
	if len(row.Creators) > 0 && string(row.Creators) != "null" {
		if err := json.Unmarshal(row.Creators, &md.Creators); err != nil {
			return nil, xerrors.Errorf("metadata %s creators: %w", row.Address, err)
		}
		if md.Creators == nil {
			md.Creators = []oracle.Creator{}
		}
	}
	return md, nil
}
