package directory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"overlay-service/internal/auth"
	"overlay-service/internal/broadcast"
	"overlay-service/internal/domain/asset"
	"overlay-service/internal/domain/channel"
	"overlay-service/internal/media"
	"overlay-service/internal/settings"
	"overlay-service/pkg/cache"
	apperrors "overlay-service/pkg/errors"
)

// fakeChannelRepo is an in-memory ChannelRepository.
type fakeChannelRepo struct {
	mu       sync.Mutex
	channels map[string]*channel.Channel
}

func newFakeChannelRepo() *fakeChannelRepo {
	return &fakeChannelRepo{channels: make(map[string]*channel.Channel)}
}

func (r *fakeChannelRepo) GetOrCreate(_ context.Context, broadcaster string) (*channel.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[broadcaster]
	if !ok {
		ch = &channel.Channel{
			Broadcaster:  broadcaster,
			CanvasWidth:  channel.DefaultCanvasWidth,
			CanvasHeight: channel.DefaultCanvasHeight,
		}
		r.channels[broadcaster] = ch
	}
	clone := *ch
	return &clone, nil
}

func (r *fakeChannelRepo) Get(_ context.Context, broadcaster string) (*channel.Channel, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[broadcaster]
	if !ok {
		return nil, apperrors.NotFound("channel not found")
	}
	clone := *ch
	return &clone, nil
}

func (r *fakeChannelRepo) AddAdmin(_ context.Context, broadcaster, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[broadcaster]
	if !ok {
		return false, apperrors.NotFound("channel not found")
	}
	if ch.HasAdmin(username) {
		return false, nil
	}
	ch.Admins = append(ch.Admins, username)
	return true, nil
}

func (r *fakeChannelRepo) RemoveAdmin(_ context.Context, broadcaster, username string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[broadcaster]
	if !ok {
		return false, apperrors.NotFound("channel not found")
	}
	for i, admin := range ch.Admins {
		if admin == username {
			ch.Admins = append(ch.Admins[:i], ch.Admins[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeChannelRepo) UpdateCanvas(_ context.Context, broadcaster string, width, height float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[broadcaster]
	if !ok {
		return apperrors.NotFound("channel not found")
	}
	ch.CanvasWidth, ch.CanvasHeight = width, height
	return nil
}

func (r *fakeChannelRepo) UpdateFeatureFlags(_ context.Context, broadcaster string, emoteChat, scriptChat *bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	ch, ok := r.channels[broadcaster]
	if !ok {
		return apperrors.NotFound("channel not found")
	}
	if emoteChat != nil {
		ch.EmoteChatEnabled = *emoteChat
	}
	if scriptChat != nil {
		ch.ScriptChatEnabled = *scriptChat
	}
	return nil
}

// fakeAssetRepo is an in-memory AssetRepository. Setting mutateErr makes the
// next Mutate fail before touching stored state.
type fakeAssetRepo struct {
	mu        sync.Mutex
	records   map[uuid.UUID]*asset.Record
	order     int
	mutateErr error
}

func newFakeAssetRepo() *fakeAssetRepo {
	return &fakeAssetRepo{records: make(map[uuid.UUID]*asset.Record)}
}

func (r *fakeAssetRepo) create(broadcaster string, rec asset.Record) *asset.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order++
	rec.Asset.Broadcaster = broadcaster
	rec.Asset.DisplayOrder = r.order
	rec.Asset.CreatedAt = time.Now()
	rec.Asset.UpdatedAt = rec.Asset.CreatedAt
	r.records[rec.Asset.ID] = &rec
	return copyRecord(&rec)
}

func (r *fakeAssetRepo) CreateVisual(_ context.Context, broadcaster string, v asset.Visual) (*asset.Record, error) {
	return r.create(broadcaster, asset.Record{
		Asset:  asset.Asset{ID: v.ID, Type: asset.TypeVisual},
		Visual: &v,
	}), nil
}

func (r *fakeAssetRepo) CreateAudio(_ context.Context, broadcaster string, a asset.Audio) (*asset.Record, error) {
	return r.create(broadcaster, asset.Record{
		Asset: asset.Asset{ID: a.ID, Type: asset.TypeAudio},
		Audio: &a,
	}), nil
}

func (r *fakeAssetRepo) CreateScript(_ context.Context, broadcaster string, s asset.Script) (*asset.Record, error) {
	return r.create(broadcaster, asset.Record{
		Asset:  asset.Asset{ID: s.ID, Type: asset.TypeScript},
		Script: &s,
	}), nil
}

func (r *fakeAssetRepo) Get(_ context.Context, id uuid.UUID) (*asset.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, apperrors.NotFound("asset not found")
	}
	return copyRecord(rec), nil
}

func (r *fakeAssetRepo) ListByBroadcaster(_ context.Context, broadcaster string) ([]asset.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []asset.Record
	for _, rec := range r.records {
		if rec.Asset.Broadcaster == broadcaster {
			out = append(out, *copyRecord(rec))
		}
	}
	return out, nil
}

func (r *fakeAssetRepo) Mutate(_ context.Context, id uuid.UUID, fn func(*asset.Record) error) (*asset.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.mutateErr != nil {
		return nil, r.mutateErr
	}
	rec, ok := r.records[id]
	if !ok {
		return nil, apperrors.NotFound("asset not found")
	}
	scratch := copyRecord(rec)
	if err := fn(scratch); err != nil {
		return nil, err
	}
	scratch.Asset.UpdatedAt = time.Now()
	r.records[id] = scratch
	return copyRecord(scratch), nil
}

func (r *fakeAssetRepo) Delete(_ context.Context, id uuid.UUID) (*asset.Record, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok {
		return nil, apperrors.NotFound("asset not found")
	}
	delete(r.records, id)
	return rec, nil
}

func (r *fakeAssetRepo) AddAttachment(_ context.Context, att asset.ScriptAttachment) (*asset.ScriptAttachment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[att.ScriptAssetID]
	if !ok || rec.Script == nil {
		return nil, apperrors.NotFound("asset not found")
	}
	rec.Script.Attachments = append(rec.Script.Attachments, att)
	return &att, nil
}

func (r *fakeAssetRepo) RemoveAttachment(_ context.Context, scriptAssetID, attachmentID uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[scriptAssetID]
	if !ok || rec.Script == nil {
		return apperrors.NotFound("asset not found")
	}
	for i, att := range rec.Script.Attachments {
		if att.ID == attachmentID {
			rec.Script.Attachments = append(rec.Script.Attachments[:i], rec.Script.Attachments[i+1:]...)
			return nil
		}
	}
	return apperrors.NotFound("attachment not found")
}

// fakeStore is an in-memory ObjectStore.
type fakeStore struct {
	mu           sync.Mutex
	objects      map[string][]byte
	contentTypes map[string]string
	presigns     int
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: make(map[string][]byte), contentTypes: make(map[string]string)}
}

func (s *fakeStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = data
	s.contentTypes[key] = contentType
	return nil
}

func (s *fakeStore) Get(_ context.Context, key string) ([]byte, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, "", apperrors.NotFound("object not found")
	}
	return data, s.contentTypes[key], nil
}

func (s *fakeStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, key)
	delete(s.contentTypes, key)
	return nil
}

func (s *fakeStore) GeneratePresignedDownloadURL(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.presigns++
	return "https://example.com/" + key, nil
}

// fakeOptimizer passes data through and reports fixed dimensions.
type fakeOptimizer struct{}

func (fakeOptimizer) Optimize(_ context.Context, data []byte, mediaType string) (*media.Optimized, error) {
	opt := &media.Optimized{Data: data, MediaType: mediaType}
	if asset.TypeForMediaType(mediaType) == asset.TypeVisual {
		opt.Width, opt.Height = 100, 50
	}
	return opt, nil
}

// fakePublisher records everything published.
type fakePublisher struct {
	mu     sync.Mutex
	topics []string
	events []any
}

func (p *fakePublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = append(p.topics, topic)
	p.events = append(p.events, payload)
	return nil
}

func (p *fakePublisher) assetEvents() []broadcast.AssetEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []broadcast.AssetEvent
	for _, e := range p.events {
		if ae, ok := e.(broadcast.AssetEvent); ok {
			out = append(out, ae)
		}
	}
	return out
}

func (p *fakePublisher) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.topics = nil
	p.events = nil
}

type testEnv struct {
	svc       *Service
	channels  *fakeChannelRepo
	assets    *fakeAssetRepo
	store     *fakeStore
	publisher *fakePublisher
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	channels := newFakeChannelRepo()
	assets := newFakeAssetRepo()
	store := newFakeStore()
	publisher := &fakePublisher{}

	svc := NewService(
		channels, assets,
		settings.Static{Bounds: settings.Defaults()},
		store, fakeOptimizer{}, publisher,
		auth.NewGate(false),
		cache.NewURLCache(), 10*time.Minute,
		"channel.", 1<<20,
	)

	return &testEnv{svc: svc, channels: channels, assets: assets, store: store, publisher: publisher}
}

var (
	owner    = auth.Identity{Username: "streamer"}
	stranger = auth.Identity{Username: "viewer"}
)

func pngUpload() []byte {
	return append([]byte("\x89PNG\r\n\x1a\n"), make([]byte, 16)...)
}

func mp3Upload() []byte {
	return append([]byte("ID3\x04\x00"), make([]byte, 16)...)
}

func (e *testEnv) createVisual(t *testing.T) asset.View {
	t.Helper()
	view, err := e.svc.CreateAsset(context.Background(), owner, "streamer", "logo.png", "image/png", pngUpload())
	require.NoError(t, err)
	e.publisher.reset()
	return *view
}

func TestCreateAssetVisual(t *testing.T) {
	env := newTestEnv(t)

	view, err := env.svc.CreateAsset(context.Background(), owner, "Streamer", "logo.png", "image/png", pngUpload())
	require.NoError(t, err)

	assert.Equal(t, asset.TypeVisual, view.Type)
	assert.Equal(t, "streamer", view.Broadcaster)
	assert.Equal(t, "logo.png", view.Name)
	assert.Equal(t, float64(100), view.Width)
	assert.Equal(t, float64(50), view.Height)
	assert.Equal(t, 1, view.DisplayOrder)

	// Bytes landed in the store
	data, contentType, err := env.store.Get(context.Background(), "assets/streamer/"+view.ID.String())
	require.NoError(t, err)
	assert.Equal(t, pngUpload(), data)
	assert.Equal(t, "image/png", contentType)

	// A CREATED event with the full view went out on the channel topic
	events := env.publisher.assetEvents()
	require.Len(t, events, 1)
	assert.Equal(t, broadcast.EventCreated, events[0].Type)
	assert.Equal(t, "channel.streamer", env.publisher.topics[len(env.publisher.topics)-1])
	require.NotNil(t, events[0].Payload)
	assert.Equal(t, view.ID, events[0].Payload.ID)
}

func TestCreateAssetAudioDefaults(t *testing.T) {
	env := newTestEnv(t)

	view, err := env.svc.CreateAsset(context.Background(), owner, "streamer", "alert.mp3", "", mp3Upload())
	require.NoError(t, err)

	assert.Equal(t, asset.TypeAudio, view.Type)
	assert.Equal(t, float64(1), view.Speed)
	assert.Equal(t, float64(1), view.Pitch)
	assert.Equal(t, float64(1), view.Volume)
	assert.Equal(t, float64(asset.DefaultAudioWidth), view.Width)
}

func TestCreateAssetRejectsStandaloneFont(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateAsset(context.Background(), owner, "streamer", "brand.woff2", "", []byte("wOF2\x00\x01\x02\x03"))
	assert.True(t, errors.Is(err, apperrors.ErrIngestion))
}

func TestCreateAssetDisplayOrderIncrements(t *testing.T) {
	env := newTestEnv(t)

	first, err := env.svc.CreateAsset(context.Background(), owner, "streamer", "a.png", "", pngUpload())
	require.NoError(t, err)
	second, err := env.svc.CreateAsset(context.Background(), owner, "streamer", "b.png", "", pngUpload())
	require.NoError(t, err)

	assert.Equal(t, 1, first.DisplayOrder)
	assert.Equal(t, 2, second.DisplayOrder)
}

func TestCreateAssetStrangerCannotBootstrapChannel(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateAsset(context.Background(), stranger, "streamer", "logo.png", "", pngUpload())
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestCreateScriptFromUpload(t *testing.T) {
	env := newTestEnv(t)

	view, err := env.svc.CreateAsset(context.Background(), owner, "streamer", "widget.js", "", []byte("console.log('hi')"))
	require.NoError(t, err)

	assert.Equal(t, asset.TypeScript, view.Type)
	assert.False(t, view.Public)
	// Stacking starts at 1; zero would put the script behind the canvas
	assert.Equal(t, 1, view.ZIndex)

	// Source lives in the object store
	data, _, err := env.store.Get(context.Background(), "assets/streamer/"+view.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []byte("console.log('hi')"), data)
}

func TestCreateScriptRejectsBlankSource(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.CreateAsset(context.Background(), owner, "streamer", "widget.js", "", []byte("   \n\t  "))
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestCrossTenantAssetReportsNotFound(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	// Provision the stranger's own channel so they are a real, authenticated
	// manager of something
	_, err := env.svc.GetOrCreateChannel(context.Background(), stranger, "viewer")
	require.NoError(t, err)

	// Another tenant's asset must look nonexistent, not forbidden
	_, err = env.svc.UpdateTransform(context.Background(), stranger, "streamer", view.ID, asset.TransformRequest{X: f(5)})
	assert.True(t, apperrors.IsNotFound(err))
	assert.False(t, errors.Is(err, apperrors.ErrForbidden))

	err = env.svc.DeleteAsset(context.Background(), stranger, "streamer", view.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestAssetUnderWrongChannelReportsNotFound(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	// Even the owner cannot reach the asset through another channel's path
	_, err := env.svc.GetOrCreateChannel(context.Background(), auth.Identity{Username: "otherchannel"}, "otherchannel")
	require.NoError(t, err)

	_, err = env.svc.UpdateTransform(context.Background(), owner, "otherchannel", view.ID, asset.TransformRequest{X: f(5)})
	assert.True(t, apperrors.IsNotFound(err))

	_, err = env.svc.DownloadURL(context.Background(), owner, "otherchannel", view.ID)
	assert.True(t, apperrors.IsNotFound(err))

	err = env.svc.DeleteAsset(context.Background(), owner, "otherchannel", view.ID)
	assert.True(t, apperrors.IsNotFound(err))

	// The asset survives untouched under its real channel
	rec, err := env.assets.Get(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, "streamer", rec.Asset.Broadcaster)
}

func TestChannelAdminCanManageAssets(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	require.NoError(t, env.svc.AddAdmin(context.Background(), owner, "streamer", "Viewer"))

	_, err := env.svc.UpdateTransform(context.Background(), stranger, "streamer", view.ID, asset.TransformRequest{X: f(5)})
	assert.NoError(t, err)
}

func TestUpdateTransformBroadcastsMinimalPatch(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	delta, err := env.svc.UpdateTransform(context.Background(), owner, "streamer", view.ID, asset.TransformRequest{X: f(42), Rotation: f(15)})
	require.NoError(t, err)

	require.NotNil(t, delta.X)
	assert.Equal(t, float64(42), *delta.X)
	require.NotNil(t, delta.Rotation)
	assert.Nil(t, delta.Y)
	assert.Nil(t, delta.Width)

	events := env.publisher.assetEvents()
	require.Len(t, events, 1)
	assert.Equal(t, broadcast.EventUpdated, events[0].Type)
	require.NotNil(t, events[0].Patch)
	assert.Nil(t, events[0].Payload)

	// The change persisted
	rec, err := env.assets.Get(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, float64(42), rec.Visual.X)
}

func TestUpdateTransformNoOpIsNotBroadcast(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	// Writing the stored values back changes nothing
	delta, err := env.svc.UpdateTransform(context.Background(), owner, "streamer", view.ID, asset.TransformRequest{X: f(view.X), Y: f(view.Y)})
	require.NoError(t, err)

	assert.Nil(t, delta.X)
	assert.Nil(t, delta.Y)
	assert.Empty(t, env.publisher.assetEvents())
}

func TestUpdateTransformRejectsOutOfRangeSpeed(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	_, err := env.svc.UpdateTransform(context.Background(), owner, "streamer", view.ID, asset.TransformRequest{Speed: f(0.05)})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
	assert.Empty(t, env.publisher.assetEvents())
}

func TestUpdateTransformRejectsMuteOnAudio(t *testing.T) {
	env := newTestEnv(t)
	view, err := env.svc.CreateAsset(context.Background(), owner, "streamer", "alert.mp3", "", mp3Upload())
	require.NoError(t, err)
	env.publisher.reset()

	muted := true
	_, err = env.svc.UpdateTransform(context.Background(), owner, "streamer", view.ID, asset.TransformRequest{Muted: &muted})
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestUpdateTransformAudioFields(t *testing.T) {
	env := newTestEnv(t)
	view, err := env.svc.CreateAsset(context.Background(), owner, "streamer", "alert.mp3", "", mp3Upload())
	require.NoError(t, err)
	env.publisher.reset()

	loop := true
	delta, err := env.svc.UpdateTransform(context.Background(), owner, "streamer", view.ID, asset.TransformRequest{
		AudioSpeed:       f(2),
		AudioPitch:       f(0.5),
		AudioVolume:      f(0.25),
		AudioDelayMillis: i64(150),
		Loop:             &loop,
	})
	require.NoError(t, err)

	require.NotNil(t, delta.Speed)
	assert.Equal(t, float64(2), *delta.Speed)
	require.NotNil(t, delta.Pitch)
	require.NotNil(t, delta.Volume)
	require.NotNil(t, delta.DelayMillis)
	assert.Equal(t, int64(150), *delta.DelayMillis)
	require.NotNil(t, delta.Loop)
	assert.True(t, *delta.Loop)
}

func TestPreviewTransformAlwaysBroadcastsAndNeverPersists(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	delta, err := env.svc.PreviewTransform(context.Background(), owner, "streamer", view.ID, asset.TransformRequest{X: f(999)})
	require.NoError(t, err)
	require.NotNil(t, delta.X)
	assert.Equal(t, float64(999), *delta.X)

	events := env.publisher.assetEvents()
	require.Len(t, events, 1)
	assert.Equal(t, broadcast.EventPreview, events[0].Type)

	// Stored state is untouched
	rec, err := env.assets.Get(context.Background(), view.ID)
	require.NoError(t, err)
	assert.Equal(t, view.X, rec.Visual.X)

	// Even a value-identical preview goes out; drags must stay live
	env.publisher.reset()
	_, err = env.svc.PreviewTransform(context.Background(), owner, "streamer", view.ID, asset.TransformRequest{X: f(view.X)})
	require.NoError(t, err)
	assert.Len(t, env.publisher.assetEvents(), 1)
}

func TestTriggerPlayback(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	// No explicit flag means play
	require.NoError(t, env.svc.TriggerPlayback(context.Background(), owner, "streamer", view.ID, nil))

	stop := false
	require.NoError(t, env.svc.TriggerPlayback(context.Background(), owner, "streamer", view.ID, &stop))

	events := env.publisher.assetEvents()
	require.Len(t, events, 2)
	assert.Equal(t, broadcast.EventPlay, events[0].Type)
	require.NotNil(t, events[0].Play)
	assert.True(t, *events[0].Play)
	require.NotNil(t, events[1].Play)
	assert.False(t, *events[1].Play)

	// Both events carry the current view so renderers can mount the asset
	// without a follow-up fetch
	for _, ev := range events {
		require.NotNil(t, ev.Payload)
		assert.Equal(t, view.ID, ev.Payload.ID)
		assert.Equal(t, view.Width, ev.Payload.Width)
	}
}

func TestUpdateVisibility(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	// Hiding sends a bare event
	require.NoError(t, env.svc.UpdateVisibility(context.Background(), owner, "streamer", view.ID, true))
	events := env.publisher.assetEvents()
	require.Len(t, events, 1)
	assert.Equal(t, broadcast.EventVisibility, events[0].Type)
	assert.Nil(t, events[0].Payload)

	// Hiding again is a no-op and notifies nobody
	env.publisher.reset()
	require.NoError(t, env.svc.UpdateVisibility(context.Background(), owner, "streamer", view.ID, true))
	assert.Empty(t, env.publisher.assetEvents())

	// Revealing carries the full view
	require.NoError(t, env.svc.UpdateVisibility(context.Background(), owner, "streamer", view.ID, false))
	events = env.publisher.assetEvents()
	require.Len(t, events, 1)
	require.NotNil(t, events[0].Payload)
	assert.Equal(t, view.ID, events[0].Payload.ID)
	assert.False(t, events[0].Payload.Hidden)
}

func TestUpdateVisibilityRejectsScripts(t *testing.T) {
	env := newTestEnv(t)
	view, err := env.svc.CreateAsset(context.Background(), owner, "streamer", "widget.js", "", []byte("export {}"))
	require.NoError(t, err)

	err = env.svc.UpdateVisibility(context.Background(), owner, "streamer", view.ID, true)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestHiddenAssetContentNotServed(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	_, _, err := env.svc.AssetContent(context.Background(), view.ID)
	require.NoError(t, err)

	require.NoError(t, env.svc.UpdateVisibility(context.Background(), owner, "streamer", view.ID, true))

	_, _, err = env.svc.AssetContent(context.Background(), view.ID)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPublicAssetsFilterHidden(t *testing.T) {
	env := newTestEnv(t)
	visible := env.createVisual(t)
	hidden, err := env.svc.CreateAsset(context.Background(), owner, "streamer", "secret.png", "", pngUpload())
	require.NoError(t, err)
	require.NoError(t, env.svc.UpdateVisibility(context.Background(), owner, "streamer", hidden.ID, true))

	views, err := env.svc.PublicAssets(context.Background(), "streamer")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, visible.ID, views[0].ID)

	// The management listing still shows both
	all, err := env.svc.ListAssets(context.Background(), owner, "streamer")
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestDeleteAsset(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	require.NoError(t, env.svc.DeleteAsset(context.Background(), owner, "streamer", view.ID))

	_, err := env.assets.Get(context.Background(), view.ID)
	assert.True(t, apperrors.IsNotFound(err))

	_, _, err = env.store.Get(context.Background(), "assets/streamer/"+view.ID.String())
	assert.Error(t, err)

	events := env.publisher.assetEvents()
	require.Len(t, events, 1)
	assert.Equal(t, broadcast.EventDeleted, events[0].Type)
	assert.Equal(t, view.ID, events[0].AssetID)
	assert.Nil(t, events[0].Payload)
}

func TestAddAdminIdempotent(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.GetOrCreateChannel(context.Background(), owner, "streamer")
	require.NoError(t, err)
	env.publisher.reset()

	require.NoError(t, env.svc.AddAdmin(context.Background(), owner, "streamer", "moderator"))
	assert.Len(t, env.publisher.events, 1)

	// Re-adding changes nothing and notifies nobody
	require.NoError(t, env.svc.AddAdmin(context.Background(), owner, "streamer", "Moderator"))
	assert.Len(t, env.publisher.events, 1)
}

func TestGetOrCreateChannelAuthorization(t *testing.T) {
	env := newTestEnv(t)

	// The broadcaster bootstraps their own channel
	ch, err := env.svc.GetOrCreateChannel(context.Background(), owner, "Streamer")
	require.NoError(t, err)
	assert.Equal(t, "streamer", ch.Broadcaster)
	assert.Equal(t, float64(channel.DefaultCanvasWidth), ch.CanvasWidth)

	// A stranger cannot, and also cannot touch the existing channel
	_, err = env.svc.GetOrCreateChannel(context.Background(), stranger, "streamer")
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
	_, err = env.svc.GetOrCreateChannel(context.Background(), stranger, "otherchannel")
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))
}

func TestUpdateCanvas(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.GetOrCreateChannel(context.Background(), owner, "streamer")
	require.NoError(t, err)
	env.publisher.reset()

	require.NoError(t, env.svc.UpdateCanvas(context.Background(), owner, "streamer", 1280, 720))

	canvas, err := env.svc.Canvas(context.Background(), "streamer")
	require.NoError(t, err)
	assert.Equal(t, float64(1280), canvas.Width)
	assert.Equal(t, float64(720), canvas.Height)
	assert.Equal(t, settings.Defaults().CanvasFPS, canvas.FPS)

	require.Len(t, env.publisher.events, 1)
	ce, ok := env.publisher.events[0].(broadcast.CanvasEvent)
	require.True(t, ok)
	assert.Equal(t, broadcast.EventCanvas, ce.Type)
	assert.Equal(t, float64(1280), ce.Payload.Width)

	// Oversized canvases are rejected
	err = env.svc.UpdateCanvas(context.Background(), owner, "streamer", 9000, 720)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestDownloadURLIsCached(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	url1, err := env.svc.DownloadURL(context.Background(), owner, "streamer", view.ID)
	require.NoError(t, err)
	url2, err := env.svc.DownloadURL(context.Background(), owner, "streamer", view.ID)
	require.NoError(t, err)

	assert.Equal(t, url1, url2)
	assert.Equal(t, 1, env.store.presigns)
}

func TestScriptAttachmentsAllowFonts(t *testing.T) {
	env := newTestEnv(t)
	script, err := env.svc.CreateAsset(context.Background(), owner, "streamer", "widget.js", "", []byte("export {}"))
	require.NoError(t, err)
	env.publisher.reset()

	view, err := env.svc.AddAttachment(context.Background(), owner, "streamer", script.ID, "brand.woff2", "", []byte("wOF2\x00\x01\x02\x03"))
	require.NoError(t, err)
	require.Len(t, view.Attachments, 1)
	assert.Equal(t, "brand.woff2", view.Attachments[0].Name)
	assert.Equal(t, asset.TypeOther, view.Attachments[0].AssetType)

	// The attachment rides out as a full UPDATED view
	events := env.publisher.assetEvents()
	require.Len(t, events, 1)
	assert.Equal(t, broadcast.EventUpdated, events[0].Type)
	require.NotNil(t, events[0].Payload)

	// Removing it cleans the object up
	env.publisher.reset()
	attID := view.Attachments[0].ID
	view, err = env.svc.RemoveAttachment(context.Background(), owner, "streamer", script.ID, attID)
	require.NoError(t, err)
	assert.Empty(t, view.Attachments)
	_, _, err = env.store.Get(context.Background(), "attachments/streamer/"+attID.String())
	assert.Error(t, err)
}

func TestAddAttachmentRejectsNonScript(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	_, err := env.svc.AddAttachment(context.Background(), owner, "streamer", view.ID, "brand.woff2", "", []byte("wOF2\x00\x01"))
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestUpdateScript(t *testing.T) {
	env := newTestEnv(t)
	script, err := env.svc.CreateAsset(context.Background(), owner, "streamer", "widget.js", "", []byte("export {}"))
	require.NoError(t, err)
	env.publisher.reset()

	public := true
	desc := "chat widget"
	view, err := env.svc.UpdateScript(context.Background(), owner, "streamer", script.ID, []byte("console.log('v2')"), &desc, nil, &public)
	require.NoError(t, err)

	assert.True(t, view.Public)
	assert.Equal(t, "chat widget", view.Description)

	data, _, err := env.store.Get(context.Background(), "assets/streamer/"+script.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []byte("console.log('v2')"), data)

	events := env.publisher.assetEvents()
	require.Len(t, events, 1)
	assert.Equal(t, broadcast.EventUpdated, events[0].Type)
}

func TestUpdateScriptFailedUpdateKeepsStoredSource(t *testing.T) {
	env := newTestEnv(t)
	script, err := env.svc.CreateAsset(context.Background(), owner, "streamer", "widget.js", "", []byte("export {}"))
	require.NoError(t, err)
	env.publisher.reset()

	env.assets.mutateErr = errors.New("connection reset")

	_, err = env.svc.UpdateScript(context.Background(), owner, "streamer", script.ID, []byte("console.log('v2')"), nil, nil, nil)
	require.Error(t, err)

	// The record still points at its original source bytes
	data, _, err := env.store.Get(context.Background(), "assets/streamer/"+script.ID.String())
	require.NoError(t, err)
	assert.Equal(t, []byte("export {}"), data)
	assert.Empty(t, env.publisher.assetEvents())
}

func TestUpdateScriptRejectsNonScript(t *testing.T) {
	env := newTestEnv(t)
	view := env.createVisual(t)

	_, err := env.svc.UpdateScript(context.Background(), owner, "streamer", view.ID, nil, nil, nil, nil)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func f(v float64) *float64 { return &v }
func i64(v int64) *int64   { return &v }
