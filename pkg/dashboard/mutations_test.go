package dashboard_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/go-chi/chi/v5"

	dasherrors "github.com/vango-dev/dashkit/internal/errors"
	"github.com/vango-dev/dashkit/pkg/dashboard"
	"github.com/vango-dev/dashkit/pkg/upload"
)

func decode(t *testing.T, r *http.Request, v any) {
	t.Helper()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		t.Errorf("decode request: %v", err)
	}
}

func TestAddBeneficiary(t *testing.T) {
	var got dashboard.BeneficiaryInput
	b := newBackend(t, func(r chi.Router) {
		r.Post("/payout/add-beneficiary", func(w http.ResponseWriter, r *http.Request) {
			decode(t, r, &got)
			writeJSON(w, http.StatusOK, map[string]any{
				"cashfreeResponse": map[string]any{"status": "SUCCESS", "beneId": "BENE_u1"},
				"savedBankDetails": dashboard.BankDetails{
					UserID: got.UserID, AccountNumber: got.AccountNumber, IFSC: got.IFSC,
					BankName: got.BankName, BranchName: got.BranchName, BeneficiaryID: "BENE_u1",
				},
			})
		})
	})
	ctx, d := mount(t, b, dashboard.Deps{})

	in := dashboard.BeneficiaryInput{UserID: "u1", AccountNumber: "123", IFSC: "ABC0001", BankName: "X", BranchName: "Y"}
	out, err := d.Payout.AddBeneficiary(ctx, in)
	if err != nil {
		t.Fatalf("AddBeneficiary() error = %v", err)
	}
	if got != in {
		t.Errorf("backend received %+v", got)
	}

	data := d.Payout.Data()
	if d.Payout.Err() != "" {
		t.Errorf("Err() = %q, want empty", d.Payout.Err())
	}
	if data.SavedBankDetails == nil || data.SavedBankDetails.AccountNumber != "123" || data.SavedBankDetails.IFSC != "ABC0001" {
		t.Errorf("savedBankDetails = %+v", data.SavedBankDetails)
	}
	var cf map[string]string
	if err := json.Unmarshal(data.CashfreeResponse, &cf); err != nil || cf["beneId"] != "BENE_u1" {
		t.Errorf("cashfreeResponse = %s", data.CashfreeResponse)
	}
	if string(out.CashfreeResponse) != string(data.CashfreeResponse) {
		t.Error("returned data differs from slice data")
	}
}

func TestAddBeneficiaryValidation(t *testing.T) {
	b := newBackend(t, func(r chi.Router) {})
	ctx, d := mount(t, b, dashboard.Deps{})

	_, err := d.Payout.AddBeneficiary(ctx, dashboard.BeneficiaryInput{UserID: "u1", AccountNumber: "12a", IFSC: "ABC0001", BankName: "X", BranchName: "Y"})
	if !dasherrors.Is(err, dasherrors.KindPrecondition) {
		t.Fatalf("error = %v, want precondition", err)
	}
	if got := d.Payout.Err(); got != "Cannot add beneficiary: account number must be numeric." {
		t.Errorf("Err() = %q", got)
	}
	if n := b.calls.Load(); n != 0 {
		t.Errorf("backend saw %d requests, want 0", n)
	}
}

func TestRequestPayoutRefreshesWallet(t *testing.T) {
	var mu sync.Mutex
	balance := 500.0
	b := newBackend(t, func(r chi.Router) {
		r.Get("/payout/beneficiary/{uid}", func(w http.ResponseWriter, r *http.Request) {
			ok(w, dashboard.BankDetails{UserID: "u1", AccountNumber: "123"})
		})
		r.Get("/wallet/{uid}", func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			ok(w, dashboard.WalletData{UserID: "u1", Balance: balance})
		})
		r.Post("/payout/request", func(w http.ResponseWriter, r *http.Request) {
			var req dashboard.PayoutRequest
			decode(t, r, &req)
			mu.Lock()
			balance -= req.Amount
			mu.Unlock()
			writeJSON(w, http.StatusOK, map[string]string{"message": "payout requested"})
		})
	})
	ctx, d := mount(t, b, dashboard.Deps{})
	d.Payout.Fetch(ctx)
	d.Wallet.Fetch(ctx)

	if err := d.Payout.RequestPayout(ctx, 900); !dasherrors.Is(err, dasherrors.KindPrecondition) {
		t.Errorf("over-balance payout error = %v, want precondition", err)
	}
	if err := d.Payout.RequestPayout(ctx, 200); err != nil {
		t.Fatalf("RequestPayout() error = %v", err)
	}
	if got := d.Wallet.Data().Balance; got != 300 {
		t.Errorf("wallet balance = %v, want 300", got)
	}
	if d.Payout.Data().SavedBankDetails == nil {
		t.Error("payout data lost after request")
	}
}

func imageStore(t *testing.T, status int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		io.Copy(io.Discard, r.Body)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": "https://cdn.example.com/img.png"})
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestGalleryUploadTooLargeKeepsSelection(t *testing.T) {
	store, _ := imageStore(t, http.StatusRequestEntityTooLarge)
	b := newBackend(t, func(r chi.Router) {
		r.Post("/gallery", func(w http.ResponseWriter, r *http.Request) {
			t.Error("gallery should not be updated after a failed upload")
		})
	})
	ctx, d := mount(t, b, dashboard.Deps{Uploader: upload.NewHTTPStore(store.URL)})

	sel := upload.NewSelection(newPNG("front.png"))
	_, err := d.Gallery.Upload(ctx, sel)
	if !dasherrors.Is(err, dasherrors.KindTooLarge) {
		t.Fatalf("Upload() error = %v, want too large", err)
	}
	if got := d.Gallery.Err(); got != "Upload failed: Images exceed the allowed file size." {
		t.Errorf("Err() = %q", got)
	}
	if sel.Len() != 1 {
		t.Errorf("selection cleared on failure: %d files", sel.Len())
	}
}

func TestGalleryUploadRetrySendsKeptFiles(t *testing.T) {
	var (
		mu       sync.Mutex
		received []int
	)
	store := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse upload: %v", err)
			return
		}
		size := -1
		for _, headers := range r.MultipartForm.File {
			fh, err := headers[0].Open()
			if err != nil {
				t.Errorf("open part: %v", err)
				return
			}
			data, _ := io.ReadAll(fh)
			fh.Close()
			size = len(data)
		}
		mu.Lock()
		received = append(received, size)
		first := len(received) == 1
		mu.Unlock()
		if first {
			w.WriteHeader(http.StatusRequestEntityTooLarge)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"url": "https://cdn.example.com/front.png"})
	}))
	t.Cleanup(store.Close)

	b := newBackend(t, func(r chi.Router) {
		r.Post("/gallery", func(w http.ResponseWriter, r *http.Request) {
			var body dashboard.GalleryData
			decode(t, r, &body)
			ok(w, body)
		})
	})
	ctx, d := mount(t, b, dashboard.Deps{Uploader: upload.NewHTTPStore(store.URL)})

	file := newPNG("front.png")
	sel := upload.NewSelection(file)
	if _, err := d.Gallery.Upload(ctx, sel); !dasherrors.Is(err, dasherrors.KindTooLarge) {
		t.Fatalf("first Upload() error = %v, want too large", err)
	}
	if _, err := d.Gallery.Upload(ctx, sel); err != nil {
		t.Fatalf("retry Upload() error = %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	want := int(file.Size)
	if len(received) != 2 || received[0] != want || received[1] != want {
		t.Errorf("bytes received per attempt = %v, want [%d %d]", received, want, want)
	}
	if sel.Len() != 0 {
		t.Errorf("selection not cleared after the retry succeeded: %d files", sel.Len())
	}
}

func TestGalleryUploadSuccessClearsSelection(t *testing.T) {
	store, storeCalls := imageStore(t, http.StatusOK)
	b := newBackend(t, func(r chi.Router) {
		r.Post("/gallery", func(w http.ResponseWriter, r *http.Request) {
			var body struct {
				UserID string   `json:"userId"`
				Images []string `json:"images"`
			}
			decode(t, r, &body)
			ok(w, dashboard.GalleryData{UserID: body.UserID, Images: body.Images})
		})
		r.Delete("/gallery/{uid}/images", func(w http.ResponseWriter, r *http.Request) {
			var body map[string]string
			decode(t, r, &body)
			if body["imageUrl"] != "https://cdn.example.com/img.png" {
				t.Errorf("delete body = %v", body)
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})
	ctx, d := mount(t, b, dashboard.Deps{Uploader: upload.NewHTTPStore(store.URL)})

	sel := upload.NewSelection(newPNG("a.png"), newPNG("b.png"))
	urls, err := d.Gallery.Upload(ctx, sel)
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if len(urls) != 2 || storeCalls.Load() != 2 {
		t.Errorf("urls = %v, store calls = %d", urls, storeCalls.Load())
	}
	if sel.Len() != 0 {
		t.Errorf("selection not cleared: %d files", sel.Len())
	}
	if got := d.Gallery.Data().Images; len(got) != 2 {
		t.Errorf("gallery images = %v", got)
	}

	if err := d.Gallery.DeleteImage(ctx, "https://cdn.example.com/img.png"); err != nil {
		t.Fatalf("DeleteImage() error = %v", err)
	}
	if got := d.Gallery.Data().Images; len(got) != 0 {
		t.Errorf("gallery images after delete = %v", got)
	}
}

func TestGalleryUploadPreconditions(t *testing.T) {
	store, storeCalls := imageStore(t, http.StatusOK)
	b := newBackend(t, func(r chi.Router) {})
	ctx, d := mount(t, b, dashboard.Deps{
		Uploader: upload.NewHTTPStore(store.URL),
		Upload:   &upload.Config{MaxFileSize: 4, AllowedTypes: []string{"image/png"}},
	})

	if _, err := d.Gallery.Upload(ctx, upload.NewSelection()); !dasherrors.Is(err, dasherrors.KindPrecondition) {
		t.Errorf("empty selection error = %v", err)
	}
	if got := d.Gallery.Err(); got != "Cannot upload images: no file selected." {
		t.Errorf("Err() = %q", got)
	}

	sel := upload.NewSelection(newPNG("big.png"))
	if _, err := d.Gallery.Upload(ctx, sel); !errors.Is(err, upload.ErrTooLarge) {
		t.Errorf("oversized error = %v", err)
	}
	if sel.Len() != 1 {
		t.Error("selection cleared on failure")
	}
	if storeCalls.Load() != 0 || b.calls.Load() != 0 {
		t.Errorf("network used: store=%d backend=%d", storeCalls.Load(), b.calls.Load())
	}
}

func TestZoneMutations(t *testing.T) {
	b := newBackend(t, func(r chi.Router) {
		r.Get("/zones", func(w http.ResponseWriter, r *http.Request) {
			ok(w, []dashboard.Zone{{ID: "z1", Name: "North", Active: true}})
		})
		r.Post("/zones", func(w http.ResponseWriter, r *http.Request) {
			var in dashboard.ZoneInput
			decode(t, r, &in)
			writeJSON(w, http.StatusCreated, dashboard.Zone{ID: "z2", Name: in.Name, City: in.City, Active: true})
		})
		r.Patch("/zones/{id}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"message": "updated " + chi.URLParam(r, "id")})
		})
	})
	ctx, d := mount(t, b, dashboard.Deps{})
	d.Zones.Fetch(ctx)

	created, err := d.Zones.CreateZone(ctx, dashboard.ZoneInput{Name: "  South ", City: "Pune"})
	if err != nil || created.ID != "z2" || created.Name != "South" {
		t.Fatalf("CreateZone() = %+v, %v", created, err)
	}
	if err := d.Zones.ToggleZone(ctx, "z1", false); err != nil {
		t.Fatalf("ToggleZone() error = %v", err)
	}
	zones := d.Zones.Data()
	if len(zones) != 2 || zones[0].Active || zones[1].ID != "z2" {
		t.Errorf("zones = %+v", zones)
	}
	if err := d.Zones.ToggleZone(ctx, "missing", true); !dasherrors.Is(err, dasherrors.KindPrecondition) {
		t.Errorf("unknown zone error = %v", err)
	}
	if len(d.Zones.Data()) != 2 {
		t.Error("failed mutation changed data")
	}
}

func TestBookingStatusTransitions(t *testing.T) {
	b := newBackend(t, func(r chi.Router) {
		r.Get("/bookings", func(w http.ResponseWriter, r *http.Request) {
			ok(w, []dashboard.Booking{{ID: "b1", Status: dashboard.BookingPending}})
		})
		r.Patch("/bookings/{id}/status", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNoContent)
		})
	})
	ctx, d := mount(t, b, dashboard.Deps{})
	d.Bookings.Fetch(ctx)

	if err := d.Bookings.UpdateStatus(ctx, "b1", dashboard.BookingCompleted); !dasherrors.Is(err, dasherrors.KindPrecondition) {
		t.Errorf("pending -> completed error = %v, want precondition", err)
	}
	if err := d.Bookings.UpdateStatus(ctx, "b1", dashboard.BookingAccepted); err != nil {
		t.Fatalf("accept error = %v", err)
	}
	if err := d.Bookings.UpdateStatus(ctx, "b1", dashboard.BookingCompleted); err != nil {
		t.Fatalf("complete error = %v", err)
	}
	if got := d.Bookings.Data()[0].Status; got != dashboard.BookingCompleted {
		t.Errorf("status = %q", got)
	}
}

func TestCouponMutations(t *testing.T) {
	b := newBackend(t, func(r chi.Router) {
		r.Get("/coupons", func(w http.ResponseWriter, r *http.Request) {
			ok(w, []dashboard.Coupon{{Code: "OLD5", DiscountType: "flat", DiscountValue: 5, Active: true}})
		})
		r.Post("/coupons", func(w http.ResponseWriter, r *http.Request) {
			var c dashboard.Coupon
			decode(t, r, &c)
			ok(w, c)
		})
		r.Patch("/coupons/{code}", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]bool{"success": true})
		})
	})
	ctx, d := mount(t, b, dashboard.Deps{})
	d.Coupons.Fetch(ctx)

	c, err := d.Coupons.CreateCoupon(ctx, dashboard.Coupon{Code: "new10", DiscountType: "percentage", DiscountValue: 10})
	if err != nil || c.Code != "NEW10" || !c.Active {
		t.Fatalf("CreateCoupon() = %+v, %v", c, err)
	}
	if _, err := d.Coupons.CreateCoupon(ctx, dashboard.Coupon{Code: "NEW10", DiscountValue: 1}); !dasherrors.Is(err, dasherrors.KindPrecondition) {
		t.Errorf("duplicate error = %v", err)
	}
	if err := d.Coupons.DeactivateCoupon(ctx, "OLD5"); err != nil {
		t.Fatalf("DeactivateCoupon() error = %v", err)
	}
	coupons := d.Coupons.Data()
	if len(coupons) != 2 || coupons[0].Active {
		t.Errorf("coupons = %+v", coupons)
	}
}

func TestCheckoutFlow(t *testing.T) {
	b := newBackend(t, func(r chi.Router) {
		r.Post("/checkout/create-order", func(w http.ResponseWriter, r *http.Request) {
			var in dashboard.OrderInput
			decode(t, r, &in)
			if in.UserID != "u1" || in.Currency != "INR" {
				t.Errorf("order input = %+v", in)
			}
			ok(w, dashboard.Order{OrderID: "order_1", UserID: in.UserID, Amount: in.Amount, Currency: in.Currency, Status: "created"})
		})
		r.Post("/checkout/verify", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]any{"success": true, "message": "verified"})
		})
	})
	ctx, d := mount(t, b, dashboard.Deps{})

	order, err := d.Checkout.CreateOrder(ctx, dashboard.OrderInput{Amount: 499, PlanName: "gold"})
	if err != nil || order.OrderID != "order_1" {
		t.Fatalf("CreateOrder() = %+v, %v", order, err)
	}
	if err := d.Checkout.VerifyPayment(ctx, dashboard.PaymentVerification{OrderID: "order_1"}); !dasherrors.Is(err, dasherrors.KindPrecondition) {
		t.Errorf("incomplete verification error = %v", err)
	}
	err = d.Checkout.VerifyPayment(ctx, dashboard.PaymentVerification{OrderID: "order_1", PaymentID: "pay_1", Signature: "sig"})
	if err != nil {
		t.Fatalf("VerifyPayment() error = %v", err)
	}
	if got := d.Checkout.Data()[0]; got.Status != "paid" || got.PaymentID != "pay_1" {
		t.Errorf("order = %+v", got)
	}
}

func TestSupportAndProfile(t *testing.T) {
	b := newBackend(t, func(r chi.Router) {
		r.Post("/support/tickets", func(w http.ResponseWriter, r *http.Request) {
			var in dashboard.TicketInput
			decode(t, r, &in)
			ok(w, dashboard.Ticket{ID: "t1", UserID: in.UserID, Subject: in.Subject, Status: "open"})
		})
		r.Patch("/providers/{uid}", func(w http.ResponseWriter, r *http.Request) {
			var u map[string]any
			decode(t, r, &u)
			ok(w, dashboard.ProfileData{UserID: chi.URLParam(r, "uid"), Name: u["name"].(string)})
		})
	})
	ctx, d := mount(t, b, dashboard.Deps{})

	if _, err := d.Support.CreateTicket(ctx, " ", "help"); !dasherrors.Is(err, dasherrors.KindPrecondition) {
		t.Errorf("empty subject error = %v", err)
	}
	ticket, err := d.Support.CreateTicket(ctx, "Payout delayed", "Still waiting")
	if err != nil || ticket.ID != "t1" || ticket.UserID != "u1" {
		t.Fatalf("CreateTicket() = %+v, %v", ticket, err)
	}
	if len(d.Support.Data()) != 1 {
		t.Errorf("tickets = %+v", d.Support.Data())
	}

	name := "Asha Services"
	if err := d.Profile.UpdateProfile(ctx, dashboard.ProfileUpdate{Name: &name}); err != nil {
		t.Fatalf("UpdateProfile() error = %v", err)
	}
	if got := d.Profile.Data(); got.Name != name || got.UserID != "u1" {
		t.Errorf("profile = %+v", got)
	}
}

func TestCanceledMutationLeavesNoMessage(t *testing.T) {
	b := newBackend(t, func(r chi.Router) {
		r.Post("/support/tickets", func(w http.ResponseWriter, r *http.Request) {
			<-r.Context().Done()
		})
	})
	_, d := mount(t, b, dashboard.Deps{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Support.CreateTicket(ctx, "s", "m")
	if !dasherrors.Is(err, dasherrors.KindCanceled) {
		t.Fatalf("error = %v, want canceled", err)
	}
	if d.Support.Err() != "" || d.Support.IsFailed() {
		t.Errorf("canceled request left state %v %q", d.Support.State(), d.Support.Err())
	}
}
