package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/thriftshop/storefront/pkg/apiclient"
	"github.com/thriftshop/storefront/pkg/storefront"
)

var errUsage = errors.New("usage")

type cli struct {
	store *storefront.Store
	out   io.Writer
}

type command struct {
	usage string
	run   func(c *cli, ctx context.Context, args []string) error
}

var commands = map[string]command{
	"products": {"products [-search q] [-ordering f] [-page n] [-size m,l] [-price 20-50] [-category c] [-condition c] [-era e]", (*cli).products},
	"view":     {"view <slug>", (*cli).view},
	"recent":   {"recent", (*cli).recent},
	"cart":     {"cart", (*cli).cart},
	"sync":     {"sync", (*cli).sync},
	"add":      {"add <slug> [quantity]", (*cli).add},
	"qty":      {"qty <line-key> <quantity>", (*cli).qty},
	"remove":   {"remove <line-key>", (*cli).remove},
	"clear":    {"clear", (*cli).clear},
	"login":    {"login <email> <password>", (*cli).login},
	"register": {"register <name> <email> <password>", (*cli).register},
	"logout":   {"logout", (*cli).logout},
	"wishlist": {"wishlist", (*cli).wishlist},
	"save":     {"save <slug>", (*cli).save},
	"shipping": {"shipping", (*cli).shipping},
	"quote":    {"quote -state KA -method <id>", (*cli).quote},
	"checkout": {"checkout -state KA -method <id> [-email e -name n] [-line1 ... -city ... -zip ...]", (*cli).checkout},
	"order":    {"order <order-number> <email>", (*cli).order},
	"watch":    {"watch", (*cli).watch},
}

func usage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Usage: storefront <command> [arguments]")
	fmt.Fprintln(w)
	for _, name := range names {
		fmt.Fprintf(w, "  %s\n", commands[name].usage)
	}
}

func (c *cli) table(header string, rows func(w io.Writer)) {
	tw := tabwriter.NewWriter(c.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, header)
	rows(tw)
	tw.Flush()
}

func (c *cli) products(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("products", flag.ContinueOnError)
	search := fs.String("search", "", "full text search")
	ordering := fs.String("ordering", "", "price, -price, created_at, -created_at")
	page := fs.Int("page", 1, "page number")
	facets := map[storefront.Facet]*string{}
	for _, f := range []storefront.Facet{
		storefront.FacetCategory, storefront.FacetBrand, storefront.FacetSize, storefront.FacetCondition,
		storefront.FacetPrice, storefront.FacetMaterial, storefront.FacetEra, storefront.FacetColor,
	} {
		facets[f] = fs.String(string(f), "", "comma separated "+string(f)+" values")
	}
	if err := fs.Parse(args); err != nil {
		return errUsage
	}

	for facet, v := range facets {
		if *v != "" {
			c.store.SetFacet(facet, strings.Split(*v, ",")...)
		}
	}

	result, err := c.store.ListProducts(ctx, storefront.ListOptions{Search: *search, Ordering: *ordering, Page: *page})
	if err != nil {
		return err
	}

	c.table("SLUG\tTITLE\tSIZE\tCONDITION\tPRICE", func(w io.Writer) {
		for _, p := range result.Results {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.2f\n", p.Slug, p.Title, p.Size, p.Condition, float64(p.Price))
		}
	})
	fmt.Fprintf(c.out, "page %d, %d of %d products\n", result.Page, len(result.Results), result.Count)
	return nil
}

func (c *cli) view(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	p, err := c.store.ViewProduct(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s (#%s)\n", p.Title, p.ID)
	fmt.Fprintf(c.out, "  size %s, %s, %s\n", p.Size, p.Condition, p.Era)
	fmt.Fprintf(c.out, "  price %.2f\n", float64(p.Price))
	if p.Description != "" {
		fmt.Fprintf(c.out, "\n%s\n", p.Description)
	}
	return nil
}

func (c *cli) recent(ctx context.Context, _ []string) error {
	c.table("SLUG\tTITLE\tVIEWED", func(w io.Writer) {
		for _, v := range c.store.RecentlyViewed(ctx) {
			fmt.Fprintf(w, "%s\t%s\t%s\n", v.Slug, v.Title, v.ViewedAt.Format("2006-01-02 15:04"))
		}
	})
	return nil
}

// cart refreshes a signed-in cart from the server before printing it. A
// failed refresh still prints the last known cart unless the session ended.
func (c *cli) cart(ctx context.Context, _ []string) error {
	if c.store.Snapshot().Authenticated() {
		if err := c.store.SyncCart(ctx); errors.Is(err, storefront.ErrSessionExpired) {
			return err
		}
	}
	return c.printCart()
}

func (c *cli) sync(ctx context.Context, _ []string) error {
	if !c.store.Snapshot().Authenticated() {
		return storefront.ErrLoginRequired
	}
	if err := c.store.SyncCart(ctx); err != nil {
		return err
	}
	return c.printCart()
}

func (c *cli) printCart() error {
	cart := c.store.Snapshot().Cart
	c.table("KEY\tTITLE\tQTY\tPRICE\tTOTAL", func(w io.Writer) {
		for _, l := range cart.Lines {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\t%.2f\n", l.Key, l.Title, l.Quantity, l.Price, l.LineTotal())
		}
	})
	fmt.Fprintf(c.out, "%d item(s), subtotal %.2f\n", cart.ItemCount(), cart.Subtotal())
	return nil
}

func (c *cli) add(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return errUsage
	}
	quantity := 1
	if len(args) == 2 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return errUsage
		}
		quantity = n
	}

	p, err := c.store.ViewProduct(ctx, args[0])
	if err != nil {
		return err
	}
	if err := c.store.AddToCart(ctx, storefront.RefFromProduct(*p), quantity); err != nil {
		return err
	}
	return c.cart(ctx, nil)
}

func (c *cli) qty(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	n, err := strconv.Atoi(args[1])
	if err != nil {
		return errUsage
	}
	if err := c.store.UpdateQuantity(ctx, args[0], n); err != nil {
		return err
	}
	return c.cart(ctx, nil)
}

func (c *cli) remove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	if err := c.store.RemoveFromCart(ctx, args[0]); err != nil {
		return err
	}
	return c.cart(ctx, nil)
}

func (c *cli) clear(ctx context.Context, _ []string) error {
	if err := c.store.ClearCart(ctx); err != nil {
		return err
	}
	return c.cart(ctx, nil)
}

func (c *cli) login(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	if err := c.store.Login(ctx, args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Logged in as %s\n", c.store.Snapshot().Session.User.Email)
	return c.cart(ctx, nil)
}

func (c *cli) register(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return errUsage
	}
	if err := c.store.Register(ctx, apiclient.RegisterRequest{Name: args[0], Email: args[1], Password: args[2]}); err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Welcome, %s\n", args[0])
	return nil
}

func (c *cli) logout(ctx context.Context, _ []string) error {
	if err := c.store.Logout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "Logged out")
	return nil
}

func (c *cli) wishlist(ctx context.Context, _ []string) error {
	if err := c.store.LoadWishlist(ctx); err != nil {
		return err
	}
	c.table("PRODUCT\tTITLE\tPRICE", func(w io.Writer) {
		for _, e := range c.store.Snapshot().Wishlist {
			fmt.Fprintf(w, "%s\t%s\t%.2f\n", e.ProductID, e.Product.Title, e.Product.Price)
		}
	})
	return nil
}

// save toggles a product on the wishlist.
func (c *cli) save(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	p, err := c.store.ViewProduct(ctx, args[0])
	if err != nil {
		return err
	}
	if err := c.store.ToggleWishlist(ctx, storefront.RefFromProduct(*p)); err != nil {
		return err
	}
	return c.wishlist(ctx, nil)
}

func (c *cli) shipping(ctx context.Context, _ []string) error {
	methods, err := c.store.ShippingMethods(ctx)
	if err != nil {
		return err
	}
	c.table("ID\tNAME\tDAYS\tMULTIPLIER", func(w io.Writer) {
		for _, m := range methods {
			fmt.Fprintf(w, "%s\t%s\t%s\t%.1fx\n", m.ID, m.Name, m.EstimatedDays, float64(m.CostMultiplier))
		}
	})
	return nil
}

type addressFlags struct {
	method string
	addr   apiclient.Address
}

func parseAddress(name string, args []string, extra func(fs *flag.FlagSet)) (*addressFlags, error) {
	var a addressFlags
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&a.method, "method", "", "shipping method id")
	fs.StringVar(&a.addr.State, "state", "", "two letter state code")
	fs.StringVar(&a.addr.Name, "to", "", "recipient name")
	fs.StringVar(&a.addr.Line1, "line1", "", "street address")
	fs.StringVar(&a.addr.City, "city", "", "city")
	fs.StringVar(&a.addr.PostalCode, "zip", "", "postal code")
	fs.StringVar(&a.addr.Phone, "phone", "", "phone number")
	if extra != nil {
		extra(fs)
	}
	if err := fs.Parse(args); err != nil || a.method == "" || a.addr.State == "" {
		return nil, errUsage
	}
	a.addr.Country = "IN"
	return &a, nil
}

func (c *cli) quote(ctx context.Context, args []string) error {
	a, err := parseAddress("quote", args, nil)
	if err != nil {
		return err
	}
	q, err := c.store.QuoteShipping(ctx, a.addr, a.method)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "%s via %s\n", q.Zone, q.Method)
	fmt.Fprintf(c.out, "  subtotal %10.2f\n", float64(q.Subtotal))
	if q.FreeShipping {
		fmt.Fprintf(c.out, "  shipping %10s\n", "free")
	} else {
		fmt.Fprintf(c.out, "  shipping %10.2f\n", float64(q.ShippingCost))
	}
	fmt.Fprintf(c.out, "  total    %10.2f\n", float64(q.Total))
	return nil
}

func (c *cli) checkout(ctx context.Context, args []string) error {
	var guest storefront.GuestContact
	a, err := parseAddress("checkout", args, func(fs *flag.FlagSet) {
		fs.StringVar(&guest.Email, "email", "", "guest email")
		fs.StringVar(&guest.Name, "name", "", "guest name")
	})
	if err != nil {
		return err
	}

	var contact *storefront.GuestContact
	if guest.Email != "" {
		contact = &guest
	}
	po, err := c.store.Checkout(ctx, a.addr, a.method, contact)
	if err != nil {
		return err
	}

	fmt.Fprintf(c.out, "Order %s created\n", po.OrderNumber)
	fmt.Fprintf(c.out, "  gateway order %s, key %s\n", po.GatewayOrderID, po.KeyID)
	fmt.Fprintf(c.out, "  amount %.2f %s\n", float64(po.Amount)/100, po.Currency)
	return nil
}

func (c *cli) order(ctx context.Context, args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	o, err := c.store.PendingOrder(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	fmt.Fprintf(c.out, "Order %s: %s\n", o.OrderNumber, o.Status)
	c.table("PRODUCT\tTITLE\tQTY\tPRICE", func(w io.Writer) {
		for _, l := range o.Items {
			fmt.Fprintf(w, "%s\t%s\t%d\t%.2f\n", l.ProductID, l.Title, l.Quantity, float64(l.Price))
		}
	})
	fmt.Fprintf(c.out, "total %.2f\n", float64(o.Total))
	return nil
}

// watch follows cart and stock events until interrupted.
func (c *cli) watch(ctx context.Context, _ []string) error {
	unsubscribe := c.store.Subscribe(func(s storefront.State) {
		fmt.Fprintf(c.out, "cart: %d item(s), subtotal %.2f\n", s.Cart.ItemCount(), s.Cart.Subtotal())
	})
	defer unsubscribe()

	fmt.Fprintln(c.out, "Watching cart events, press Ctrl+C to stop")
	return c.store.WatchCartEvents(ctx)
}
