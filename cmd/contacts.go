package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/twiced-technology-gmbh/taskdeck/internal/clierr"
	"github.com/twiced-technology-gmbh/taskdeck/internal/contacts"
	"github.com/twiced-technology-gmbh/taskdeck/internal/output"
)

var contactsCmd = &cobra.Command{
	Use:     "contacts",
	Aliases: []string{"contact"},
	Short:   "List contacts grouped by initial",
	Args:    cobra.NoArgs,
	RunE:    runContactsList,
}

var contactsShowCmd = &cobra.Command{
	Use:   "show REF",
	Short: "Show a contact by id, username, email or name",
	Args:  cobra.ExactArgs(1),
	RunE:  runContactsShow,
}

var contactsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a contact",
	Args:  cobra.NoArgs,
	RunE:  runContactsAdd,
}

func init() {
	contactsAddCmd.Flags().String("first-name", "", "first name (required)")
	contactsAddCmd.Flags().String("last-name", "", "last name (required)")
	contactsAddCmd.Flags().String("email", "", "email address (required)")
	contactsAddCmd.Flags().String("phone", "", "phone number (required)")
	contactsAddCmd.Flags().String("color", "", "badge color (default "+contacts.DefaultColor+")")
	contactsCmd.AddCommand(contactsShowCmd, contactsAddCmd)
	rootCmd.AddCommand(contactsCmd)
}

func runContactsList(cmd *cobra.Command, _ []string) error {
	a, _, err := openAuthedApp(nil)
	if err != nil {
		return err
	}
	defer a.persistSession()

	if err := a.contacts.Load(cmd.Context()); err != nil {
		return err
	}
	groups := a.contacts.Groups()

	switch outputFormat() {
	case output.FormatJSON:
		return output.JSON(os.Stdout, groups)
	case output.FormatCompact:
		output.ContactsCompact(os.Stdout, groups)
	default:
		output.ContactGroups(os.Stdout, groups)
	}
	return nil
}

func runContactsShow(cmd *cobra.Command, args []string) error {
	a, _, err := openAuthedApp(nil)
	if err != nil {
		return err
	}
	defer a.persistSession()

	if err := a.contacts.Load(cmd.Context()); err != nil {
		return err
	}
	m, ok := a.contacts.Lookup(args[0])
	if !ok {
		return clierr.Newf(clierr.InvalidInput, "unknown contact %q", args[0]).
			WithDetails(map[string]any{"ref": args[0]})
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, m)
	}
	output.ContactDetail(os.Stdout, m)
	return nil
}

func runContactsAdd(cmd *cobra.Command, _ []string) error {
	in := contacts.Input{}
	in.FirstName, _ = cmd.Flags().GetString("first-name")
	in.LastName, _ = cmd.Flags().GetString("last-name")
	in.Email, _ = cmd.Flags().GetString("email")
	in.PhoneNumber, _ = cmd.Flags().GetString("phone")
	in.Color, _ = cmd.Flags().GetString("color")
	if err := in.Validate(); err != nil {
		return err
	}

	a, _, err := openAuthedApp(nil)
	if err != nil {
		return err
	}
	defer a.persistSession()

	m, err := a.contacts.Add(cmd.Context(), in)
	if err != nil {
		return err
	}

	if outputFormat() == output.FormatJSON {
		return output.JSON(os.Stdout, m)
	}
	output.Messagef(os.Stdout, "Added contact #%d: %s", m.ID, m.FullName())
	return nil
}
