package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainlistings "stayloop/internal/domain/listings"
	"stayloop/internal/domain/shared/money"
)

type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection("agg_listing")}
}

func (r *ListingRepository) ByID(ctx context.Context, id domainlistings.ListingID) (*domainlistings.Listing, error) {
	var doc listingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainlistings.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *ListingRepository) Save(ctx context.Context, l *domainlistings.Listing) error {
	doc := newListingDocument(l)
	filter := bson.M{"_id": doc.ID, "version": l.Version}
	doc.Version = l.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	l.Version = doc.Version
	return nil
}

func (r *ListingRepository) ListByHost(ctx context.Context, host domainlistings.HostID) ([]*domainlistings.Listing, error) {
	cursor, err := r.col.Find(ctx, bson.M{"host_id": string(host)})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)
	return decodeListings(ctx, cursor)
}

func (r *ListingRepository) Search(ctx context.Context, params domainlistings.SearchParams) (domainlistings.SearchResult, error) {
	params = params.Normalized()
	filter := searchFilter(params)
	total, err := r.col.CountDocuments(ctx, filter)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	opts := options.Find().
		SetSort(searchSort(params.Sort)).
		SetSkip(int64(params.Offset)).
		SetLimit(int64(params.Limit))
	cursor, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	defer cursor.Close(ctx)
	items, err := decodeListings(ctx, cursor)
	if err != nil {
		return domainlistings.SearchResult{}, err
	}
	return domainlistings.SearchResult{Items: items, Total: int(total)}, nil
}

func searchFilter(params domainlistings.SearchParams) bson.M {
	filter := bson.M{}
	if params.OnlyActive {
		filter["state"] = string(domainlistings.ListingActive)
	} else if len(params.States) > 0 {
		states := make([]string, 0, len(params.States))
		for _, s := range params.States {
			states = append(states, string(s))
		}
		filter["state"] = bson.M{"$in": states}
	}
	if params.Host != "" {
		filter["host_id"] = string(params.Host)
	}
	if params.City != "" {
		filter["address.city"] = caseInsensitive(params.City)
	}
	if params.Country != "" {
		filter["address.country"] = caseInsensitive(params.Country)
	}
	if params.LocationQuery != "" {
		pattern := caseInsensitive(params.LocationQuery)
		filter["$or"] = bson.A{
			bson.M{"address.city": pattern},
			bson.M{"address.region": pattern},
			bson.M{"address.country": pattern},
		}
	}
	if len(params.Amenities) > 0 {
		filter["amenities"] = bson.M{"$all": params.Amenities}
	}
	if len(params.PropertyTypes) > 0 {
		filter["property_type"] = bson.M{"$in": params.PropertyTypes}
	}
	if params.MinGuests > 0 {
		filter["guests_limit"] = bson.M{"$gte": params.MinGuests}
	}
	price := bson.M{}
	if params.PriceMinCents > 0 {
		price["$gte"] = params.PriceMinCents
	}
	if params.PriceMaxCents > 0 {
		price["$lte"] = params.PriceMaxCents
	}
	if len(price) > 0 {
		filter["pricing.base_price.amount"] = price
	}
	return filter
}

func searchSort(sort domainlistings.CatalogSort) bson.D {
	switch sort {
	case domainlistings.SortByPriceDesc:
		return bson.D{{Key: "pricing.base_price.amount", Value: -1}}
	case domainlistings.SortByRating:
		return bson.D{{Key: "rating.average", Value: -1}, {Key: "rating.count", Value: -1}}
	case domainlistings.SortByNewest:
		return bson.D{{Key: "created_at", Value: -1}}
	default:
		return bson.D{{Key: "pricing.base_price.amount", Value: 1}}
	}
}

func caseInsensitive(term string) primitive.Regex {
	return primitive.Regex{Pattern: term, Options: "i"}
}

func decodeListings(ctx context.Context, cursor *mongo.Cursor) ([]*domainlistings.Listing, error) {
	var out []*domainlistings.Listing
	for cursor.Next(ctx) {
		var doc listingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toAggregate())
	}
	return out, cursor.Err()
}

type listingDocument struct {
	ID           string                    `bson:"_id"`
	HostID       string                    `bson:"host_id"`
	Title        string                    `bson:"title"`
	Description  string                    `bson:"description,omitempty"`
	PropertyType string                    `bson:"property_type,omitempty"`
	Address      addressDocument           `bson:"address"`
	Amenities    []string                  `bson:"amenities,omitempty"`
	Photos       []string                  `bson:"photos,omitempty"`
	GuestsLimit  int                       `bson:"guests_limit"`
	MinStay      int                       `bson:"min_stay"`
	MaxStay      int                       `bson:"max_stay"`
	HouseRules   houseRulesDocument        `bson:"house_rules"`
	Pricing      pricingDocument           `bson:"pricing"`
	State        string                    `bson:"state"`
	Rating       domainlistings.Rating     `bson:"rating"`
	InstantBook  bool                      `bson:"instant_book"`
	CreatedAt    int64                     `bson:"created_at"`
	UpdatedAt    int64                     `bson:"updated_at"`
	Version      int64                     `bson:"version"`
}

type addressDocument struct {
	Line1   string  `bson:"line1,omitempty"`
	Line2   string  `bson:"line2,omitempty"`
	City    string  `bson:"city,omitempty"`
	Region  string  `bson:"region,omitempty"`
	Country string  `bson:"country,omitempty"`
	Lat     float64 `bson:"lat,omitempty"`
	Lon     float64 `bson:"lon,omitempty"`
}

type houseRulesDocument struct {
	PetsAllowed    bool     `bson:"pets_allowed"`
	SmokingAllowed bool     `bson:"smoking_allowed"`
	PartiesAllowed bool     `bson:"parties_allowed"`
	Additional     []string `bson:"additional,omitempty"`
}

type pricingDocument struct {
	BasePrice   money.Money `bson:"base_price"`
	CleaningFee money.Money `bson:"cleaning_fee"`
}

func newListingDocument(l *domainlistings.Listing) listingDocument {
	return listingDocument{
		ID:           string(l.ID),
		HostID:       string(l.Host),
		Title:        l.Title,
		Description:  l.Description,
		PropertyType: l.PropertyType,
		Address: addressDocument{
			Line1:   l.Address.Line1,
			Line2:   l.Address.Line2,
			City:    l.Address.City,
			Region:  l.Address.Region,
			Country: l.Address.Country,
			Lat:     l.Address.Lat,
			Lon:     l.Address.Lon,
		},
		Amenities:   l.Amenities,
		Photos:      l.Photos,
		GuestsLimit: l.GuestsLimit,
		MinStay:     l.MinStay,
		MaxStay:     l.MaxStay,
		HouseRules: houseRulesDocument{
			PetsAllowed:    l.HouseRules.PetsAllowed,
			SmokingAllowed: l.HouseRules.SmokingAllowed,
			PartiesAllowed: l.HouseRules.PartiesAllowed,
			Additional:     l.HouseRules.Additional,
		},
		Pricing:     pricingDocument{BasePrice: l.Pricing.BasePrice, CleaningFee: l.Pricing.CleaningFee},
		State:       string(l.State),
		Rating:      l.Rating,
		InstantBook: l.InstantBook,
		CreatedAt:   l.CreatedAt.UnixMilli(),
		UpdatedAt:   l.UpdatedAt.UnixMilli(),
		Version:     l.Version,
	}
}

func (d listingDocument) toAggregate() *domainlistings.Listing {
	return &domainlistings.Listing{
		ID:           domainlistings.ListingID(d.ID),
		Host:         domainlistings.HostID(d.HostID),
		Title:        d.Title,
		Description:  d.Description,
		PropertyType: d.PropertyType,
		Address: domainlistings.Address{
			Line1:   d.Address.Line1,
			Line2:   d.Address.Line2,
			City:    d.Address.City,
			Region:  d.Address.Region,
			Country: d.Address.Country,
			Lat:     d.Address.Lat,
			Lon:     d.Address.Lon,
		},
		Amenities:   d.Amenities,
		Photos:      d.Photos,
		GuestsLimit: d.GuestsLimit,
		MinStay:     d.MinStay,
		MaxStay:     d.MaxStay,
		HouseRules: domainlistings.HouseRules{
			PetsAllowed:    d.HouseRules.PetsAllowed,
			SmokingAllowed: d.HouseRules.SmokingAllowed,
			PartiesAllowed: d.HouseRules.PartiesAllowed,
			Additional:     d.HouseRules.Additional,
		},
		Pricing:     domainlistings.Pricing{BasePrice: d.Pricing.BasePrice, CleaningFee: d.Pricing.CleaningFee},
		State:       domainlistings.ListingState(d.State),
		Rating:      d.Rating,
		InstantBook: d.InstantBook,
		CreatedAt:   timestampToTime(d.CreatedAt),
		UpdatedAt:   timestampToTime(d.UpdatedAt),
		Version:     d.Version,
	}
}
