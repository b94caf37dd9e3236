package usecase

import (
	"context"
	"encoding/hex"
	"sort"
	"strings"
	"time"

	"github.com/zapeame/nostr-market/internal/domain"
	"github.com/zapeame/nostr-market/internal/repository/relay/converter"
	"github.com/zapeame/nostr-market/pkg/e"
	"github.com/zapeame/nostr-market/pkg/logger"
)

// MarketUseCase реализует фасад маркетплейса: публикация, поиск
// и социальный граф продавцов. Все публичные методы — последовательные
// конвейеры; активный набор реле мутирует только Connect внутри репозитория.
type MarketUseCase struct {
	listingRepo ListingRepository
	cacheRepo   CacheRepository
	signer      Signer
	feed        FeedProducer // nil, если фид выключен конфигурацией
	logger      logger.Logger
	now         func() int64
}

func NewMarketUC(
	listingRepo ListingRepository,
	cacheRepo CacheRepository,
	signer Signer,
	feed FeedProducer,
	logger logger.Logger,
) *MarketUseCase {
	return &MarketUseCase{
		listingRepo: listingRepo,
		cacheRepo:   cacheRepo,
		signer:      signer,
		feed:        feed,
		logger:      logger,
		now:         func() int64 { return time.Now().Unix() },
	}
}

// PublishListing публикует объявление: валидация, подключение с кворумом,
// кодирование, внешняя подпись, рассылка на активные реле.
// Отказ подписанта и полный отказ рассылки — фатальны и всплывают к вызывающему.
func (m *MarketUseCase) PublishListing(ctx context.Context, req *PublishListingReq) (*PublishListingRes, error) {
	const op = "MarketUseCase.PublishListing"

	// Валидация данных
	if err := m.validateListing(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := m.listingRepo.Connect(ctx); err != nil {
		return nil, e.Wrap(op, err)
	}

	pubkey, err := m.signer.GetPublicKey(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	product := m.buildProduct(req, pubkey)

	ev := converter.Encode(&product)
	ev.PubKey = pubkey

	// Подпись может быть отклонена пользователем — ошибка уходит наверх как есть
	if err := m.signer.SignEvent(ctx, &ev); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := m.listingRepo.PublishEvent(ctx, ev); err != nil {
		return nil, e.Wrap(op, err)
	}

	product.ID = ev.ID

	// Фид и инвалидация кэша — best-effort, публикацию уже не откатить
	if m.feed != nil {
		if err := m.feed.PublishListingEvent(ctx, NewListingFeedReq(&product)); err != nil {
			m.logger.Warnf("Failed to publish listing feed message: %v", e.Wrap(op, err))
		}
	}

	if err := m.cacheRepo.DeleteBrowseListings(ctx); err != nil {
		m.logger.Warnf("Failed to invalidate browse cache: %v", e.Wrap(op, err))
	}

	return NewPublishListingRes(ev.ID, product), nil
}

// SearchListings возвращает объявления, отсортированные от новых к старым.
// Любая ошибка деградирует до пустого результата: для вызывающего отсутствие
// объявлений неотличимо от временных проблем с реле.
func (m *MarketUseCase) SearchListings(ctx context.Context, req *SearchListingsReq) ([]domain.Product, error) {
	const op = "MarketUseCase.SearchListings"

	if req == nil {
		req = &SearchListingsReq{}
	}

	browse := isBrowseQuery(req)
	if browse {
		cached, err := m.cacheRepo.GetBrowseListings(ctx)
		if err != nil {
			m.logger.Warnf("Browse cache read failed: %v", e.Wrap(op, err))
		} else if len(cached) > 0 {
			return cached, nil
		}
	}

	if err := m.listingRepo.Connect(ctx); err != nil {
		m.logger.Warnf("Search connect failed: %v", e.Wrap(op, err))
		return []domain.Product{}, nil
	}

	products, err := m.listingRepo.SearchListings(ctx, req)
	if err != nil {
		m.logger.Warnf("Search failed: %v", e.Wrap(op, err))
		return []domain.Product{}, nil
	}

	// Новые сверху; стабильность сохраняет порядок прибытия при равных метках
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].CreatedAt > products[j].CreatedAt
	})

	if browse && len(products) > 0 {
		// Фоновое кэширование результата браузинга
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			if err := m.cacheRepo.SetBrowseListings(bgCtx, products); err != nil {
				m.logger.Warnf("Failed to cache browse listings in background: %v", e.Wrap(op, err))
			}
		}()
	}

	return products, nil
}

// FollowSeller добавляет продавца в контакт-лист пользователя и публикует
// обновленный лист. Действие инициировано пользователем и ждет подтверждения,
// поэтому все ошибки всплывают наверх.
func (m *MarketUseCase) FollowSeller(ctx context.Context, pubkey string) error {
	const op = "MarketUseCase.FollowSeller"

	if !isValidPubKey(pubkey) {
		return e.Wrap(op, e.ErrInvalidSellerKey)
	}

	if err := m.listingRepo.Connect(ctx); err != nil {
		return e.Wrap(op, err)
	}

	self, err := m.signer.GetPublicKey(ctx)
	if err != nil {
		return e.Wrap(op, err)
	}

	// Сливаем с текущим листом, чтобы не затереть существующие подписки:
	// kind-3 — заменяемое событие, публикуется целиком
	follows, err := m.listingRepo.FollowedSellers(ctx, self)
	if err != nil {
		return e.Wrap(op, err)
	}

	for _, followed := range follows {
		if followed == pubkey {
			return nil // уже подписан
		}
	}
	follows = append(follows, pubkey)

	ev := converter.EncodeContacts(follows, m.now())
	ev.PubKey = self

	if err := m.signer.SignEvent(ctx, &ev); err != nil {
		return e.Wrap(op, err)
	}

	if err := m.listingRepo.PublishEvent(ctx, ev); err != nil {
		return e.Wrap(op, err)
	}

	if err := m.cacheRepo.DeleteFollows(ctx, self); err != nil {
		m.logger.Warnf("Failed to invalidate follows cache: %v", e.Wrap(op, err))
	}

	return nil
}

// GetFollowedSellers возвращает дедуплицированный набор продавцов
// из контакт-листа пользователя. Ошибки деградируют до пустого набора.
func (m *MarketUseCase) GetFollowedSellers(ctx context.Context) ([]string, error) {
	const op = "MarketUseCase.GetFollowedSellers"

	self, err := m.signer.GetPublicKey(ctx)
	if err != nil {
		m.logger.Warnf("Follows read failed, no signer identity: %v", e.Wrap(op, err))
		return []string{}, nil
	}

	if follows, err := m.cacheRepo.GetFollows(ctx, self); err != nil {
		m.logger.Warnf("Follows cache read failed: %v", e.Wrap(op, err))
	} else if len(follows) > 0 {
		return follows, nil
	}

	if err := m.listingRepo.Connect(ctx); err != nil {
		m.logger.Warnf("Follows connect failed: %v", e.Wrap(op, err))
		return []string{}, nil
	}

	follows, err := m.listingRepo.FollowedSellers(ctx, self)
	if err != nil {
		m.logger.Warnf("Follows query failed: %v", e.Wrap(op, err))
		return []string{}, nil
	}

	if len(follows) > 0 {
		if err := m.cacheRepo.SetFollows(ctx, self, follows); err != nil {
			m.logger.Warnf("Failed to cache follows: %v", e.Wrap(op, err))
		}
	}

	return follows, nil
}

// buildProduct собирает доменную запись объявления из запроса
func (m *MarketUseCase) buildProduct(req *PublishListingReq, pubkey string) domain.Product {
	images := make([]string, 0, len(req.Images))
	for _, img := range req.Images {
		if strings.TrimSpace(img) == "" {
			continue
		}
		images = append(images, strings.TrimSpace(img))
	}

	return domain.Product{
		AuthorKey:       pubkey,
		Title:           strings.TrimSpace(req.Title),
		Summary:         strings.TrimSpace(req.Summary),
		Description:     strings.TrimSpace(req.Description),
		Notes:           strings.TrimSpace(req.Notes),
		Price:           strings.TrimSpace(req.Price),
		Currency:        req.Currency,
		Location:        strings.TrimSpace(req.Location),
		PaymentMethods:  req.PaymentMethods,
		DeliveryMethods: req.DeliveryMethods,
		Images:          images,
		Website:         strings.TrimSpace(req.Website),
		ContactInfo:     strings.TrimSpace(req.ContactInfo),
		Categories:      req.Categories,
		CreatedAt:       m.now(),
	}
}

// validateListing проверяет корректность входных данных объявления
func (m *MarketUseCase) validateListing(req *PublishListingReq) error {
	if strings.TrimSpace(req.Title) == "" {
		return e.ErrTitleRequired
	}

	if strings.TrimSpace(req.Description) == "" {
		return e.ErrDescriptionRequired
	}

	if strings.TrimSpace(req.ContactInfo) == "" {
		return e.ErrContactRequired
	}

	if strings.TrimSpace(req.Price) == "" {
		return e.ErrInvalidPrice
	}

	if !req.Currency.Valid() {
		return e.ErrInvalidCurrency
	}

	for _, method := range req.PaymentMethods {
		if !method.Valid() {
			return e.ErrInvalidPaymentMethod
		}
	}

	for _, method := range req.DeliveryMethods {
		if !method.Valid() {
			return e.ErrInvalidDeliveryMethod
		}
	}

	nonEmpty := 0
	for _, img := range req.Images {
		if strings.TrimSpace(img) != "" {
			nonEmpty++
		}
	}
	if nonEmpty > domain.MaxListingImages {
		return e.ErrTooManyImages
	}

	return nil
}

// isBrowseQuery сообщает, что поиск без ограничений — браузинг по умолчанию
func isBrowseQuery(req *SearchListingsReq) bool {
	return len(req.Authors) == 0 && req.Since == nil && req.Until == nil && req.Limit == 0
}

// isValidPubKey проверяет, что pubkey — 32 байта в hex
func isValidPubKey(pubkey string) bool {
	if len(pubkey) != 64 {
		return false
	}

	_, err := hex.DecodeString(pubkey)
	return err == nil
}
