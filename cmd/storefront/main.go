package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"majji-market/internal/authclient"
	"majji-market/internal/config"
	"majji-market/internal/storefront"
)

func main() {
	demo := flag.Bool("demo", false, "usar cuentas de demostracion sin servidor")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.LoadClientConfig()
	if err != nil {
		log.Fatal(err)
	}

	logger := zap.NewExample()
	defer logger.Sync()

	var adapter storefront.SessionAdapter
	if *demo || cfg.Demo {
		adapter = storefront.NewDemoAdapter(storefront.DemoAccounts())
		fmt.Println("Modo demo: sarah.dev@email.com (seller) o buyer@company.com (buyer), cualquier contraseña.")
	} else {
		api := authclient.New(cfg.APIURL, cfg.HTTPTimeout, logger)
		adapter = storefront.NewRemoteAdapter(api, logger,
			storefront.WithOAuthPolling(cfg.OAuthPollInterval, cfg.OAuthHandoffTimeout))
	}

	app := storefront.NewApp(adapter, logger)
	defer app.Close()

	ctx := context.Background()
	reader := bufio.NewReader(os.Stdin)
	printPage(app)
	printHelp()

	for {
		fmt.Print("majji > ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			printPage(app)
			continue
		}
		cmd, args := strings.ToLower(fields[0]), fields[1:]

		switch cmd {
		case "go":
			if len(args) == 0 {
				fmt.Println("Uso: go <vista> [arg]")
				continue
			}
			var req storefront.NavRequest
			if req, err = storefront.ParseRequest(args[0], args[1:]...); err == nil {
				_, err = app.Navigate(req)
			}
		case "product":
			if len(args) == 0 {
				fmt.Println("Uso: product <id>")
				continue
			}
			_, err = app.Navigate(storefront.NavRequest{View: storefront.ViewProduct, ProductID: args[0]})
		case "search":
			_, err = app.Navigate(storefront.NavRequest{View: storefront.ViewBrowse, SearchTerm: strings.Join(args, " ")})
		case "login":
			if len(args) < 2 {
				fmt.Println("Uso: login <email> <password>")
				continue
			}
			err = app.SignIn(ctx, args[0], args[1])
		case "signup":
			err = signUpFlow(ctx, reader, app, args)
		case "google":
			var url string
			url, err = app.SignInWithProvider(ctx, "google")
			if err == nil {
				fmt.Printf("Abre esta URL para continuar: %s\n", url)
				fmt.Println("La sesion se activara sola al volver del proveedor.")
			}
		case "logout":
			err = app.SignOut(ctx)
		case "onboard":
			err = onboardingFlow(ctx, reader, app)
		case "publish":
			err = publishFlow(reader, app)
		case "whoami":
			printUser(app.User())
			continue
		case "help":
			printHelp()
			continue
		case "quit", "exit":
			return
		default:
			fmt.Println("Comando invalido. Escribe help.")
			continue
		}

		if err != nil {
			fmt.Printf("Error: %v\n", err)
		}
		printPage(app)
	}
}

func printHelp() {
	fmt.Println("Comandos: go <vista> [arg] | product <id> | search <texto> | login <email> <password> |")
	fmt.Println("          signup <email> <password> | google | logout | onboard | publish | whoami | quit")
}

func printPage(app *storefront.App) {
	fmt.Println()
	for _, line := range app.Page().Lines() {
		fmt.Println(line)
	}
	fmt.Println()
}

func printUser(u *storefront.User) {
	if u == nil {
		fmt.Println("Sin sesion.")
		return
	}
	fmt.Printf("%s <%s> tipo=%s verificado=%t onboarding_pendiente=%t\n",
		u.Name, u.Email, u.AccountType, u.Verified, u.NeedsOnboarding)
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	text, _ := reader.ReadString('\n')
	return strings.TrimSpace(text)
}

func signUpFlow(ctx context.Context, reader *bufio.Reader, app *storefront.App, args []string) error {
	input := storefront.SignUpInput{}
	if len(args) >= 2 {
		input.Email, input.Password = args[0], args[1]
	} else {
		input.Email = prompt(reader, "Email: ")
		input.Password = prompt(reader, "Password: ")
	}
	input.Name = prompt(reader, "Nombre (opcional): ")
	if strings.EqualFold(prompt(reader, "Tipo [buyer/seller] (opcional): "), "seller") {
		input.AccountType = storefront.AccountTypeSeller
	} else {
		input.AccountType = storefront.AccountTypeBuyer
		input.Company = prompt(reader, "Empresa (opcional): ")
	}
	return app.SignUp(ctx, input)
}

// onboardingFlow recorre el asistente. Una linea vacia conserva el valor actual.
func onboardingFlow(ctx context.Context, reader *bufio.Reader, app *storefront.App) error {
	if u := app.User(); u == nil || !u.NeedsOnboarding {
		_, err := app.Navigate(storefront.ViewOnboarding)
		return err
	}

	for {
		var (
			step  storefront.OnboardingStep
			draft storefront.OnboardingDraft
		)
		_ = app.WithOnboarding(func(o *storefront.Onboarding) error {
			step, draft = o.Step(), o.Draft()
			for _, line := range storefront.RenderOnboarding(step, draft, o.Err()) {
				fmt.Println(line)
			}
			return nil
		})

		switch step {
		case storefront.StepIdentity:
			name := prompt(reader, fmt.Sprintf("Nombre [%s]: ", draft.Name))
			kind := prompt(reader, fmt.Sprintf("Tipo buyer/seller [%s]: ", draft.AccountType))
			var company string
			if kind == string(storefront.AccountTypeBuyer) || (kind == "" && draft.AccountType == storefront.AccountTypeBuyer) {
				company = prompt(reader, fmt.Sprintf("Empresa [%s]: ", draft.Company))
			}
			err := app.WithOnboarding(func(o *storefront.Onboarding) error {
				if name != "" {
					o.SetName(name)
				}
				if kind != "" {
					if err := o.SetAccountType(storefront.AccountType(kind)); err != nil {
						return err
					}
				}
				if company != "" {
					o.SetCompany(company)
				}
				return o.Next()
			})
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			}

		case storefront.StepInterests:
			choice := prompt(reader, "Numero para marcar/desmarcar, b=bio, <=atras, enter=continuar: ")
			err := app.WithOnboarding(func(o *storefront.Onboarding) error {
				switch choice {
				case "":
					return o.Next()
				case "<":
					return o.Back(storefront.StepIdentity)
				case "b":
					return nil
				}
				idx, err := strconv.Atoi(choice)
				if err != nil || idx < 1 || idx > len(storefront.InterestCatalog) {
					return fmt.Errorf("opcion invalida %q", choice)
				}
				return o.ToggleInterest(storefront.InterestCatalog[idx-1])
			})
			if choice == "b" {
				bio := prompt(reader, "Bio: ")
				err = app.WithOnboarding(func(o *storefront.Onboarding) error {
					o.SetBio(bio)
					return nil
				})
			}
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			}

		case storefront.StepSummary:
			switch prompt(reader, "Confirmar [s], volver [1/2], cancelar [q]: ") {
			case "s", "S":
				if err := app.ConfirmOnboarding(ctx); err != nil {
					fmt.Printf("Error: %v (puedes reintentar)\n", err)
					continue
				}
				fmt.Println("Perfil completado.")
				return nil
			case "1":
				_ = app.WithOnboarding(func(o *storefront.Onboarding) error { return o.Back(storefront.StepIdentity) })
			case "2":
				_ = app.WithOnboarding(func(o *storefront.Onboarding) error { return o.Back(storefront.StepInterests) })
			case "q", "Q":
				return nil
			}
		}

		if u := app.User(); u == nil {
			return fmt.Errorf("session ended during onboarding")
		}
	}
}

// publishFlow valida el formulario de alta; el producto no se persiste.
func publishFlow(reader *bufio.Reader, app *storefront.App) error {
	state, err := app.Navigate(storefront.ViewAddProduct)
	if err != nil {
		return err
	}
	if state.CurrentView != storefront.ViewAddProduct {
		return nil
	}
	draft := storefront.ProductDraft{
		Name:        prompt(reader, "Nombre del producto: "),
		Description: prompt(reader, "Descripcion: "),
		Category:    prompt(reader, "Categoria: "),
		Price:       prompt(reader, "Precio: "),
		Tags:        prompt(reader, "Tags (separados por coma): "),
	}
	if err := draft.Validate(); err != nil {
		return err
	}
	fmt.Println("Product added successfully! It will be reviewed and published within 24 hours.")
	_, err = app.Navigate(storefront.ViewDashboard)
	return err
}
