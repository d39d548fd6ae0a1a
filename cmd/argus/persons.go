package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"argus/internal/domain"
)

// newPersonsCommand manages person dossiers inside a case: the basic record
// plus nickname, address, job and social-profile sub-entities.
func newPersonsCommand() *cobra.Command {
	personsCmd := &cobra.Command{Use: "persons", Short: "Manage person dossiers in a case"}

	createCmd := &cobra.Command{
		Use:   "create <case>",
		Short: "Create a person dossier",
		Args:  cobra.ExactArgs(1),
		RunE:  runPersonsCreate,
	}
	addPersonFlags(createCmd)
	createCmd.Flags().StringArray("nickname", nil, "nickname (repeatable)")

	listCmd := &cobra.Command{
		Use:   "list <case>",
		Short: "List person dossiers",
		Args:  cobra.ExactArgs(1),
		RunE:  runPersonsList,
	}

	updateCmd := &cobra.Command{
		Use:   "update <case> <person-id>",
		Short: "Update a person's basic fields (only the flags given change)",
		Args:  cobra.ExactArgs(2),
		RunE:  runPersonsUpdate,
	}
	addPersonFlags(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <case> <person-id>",
		Short: "Delete a person and all attached details",
		Args:  cobra.ExactArgs(2),
		RunE:  runPersonsDelete,
	}

	addNicknameCmd := &cobra.Command{
		Use:   "add-nickname <case> <person-id> <value>",
		Short: "Attach a nickname",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore(cmd)
			defer store.Close()
			id, err := store.AddNickname(args[0], args[1], args[2])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "nickname %s added\n", id)
			return nil
		},
	}
	removeNicknameCmd := &cobra.Command{
		Use:   "remove-nickname <case> <nickname-id>",
		Short: "Remove a nickname by ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore(cmd)
			defer store.Close()
			return store.RemoveNickname(args[0], args[1])
		},
	}

	addAddressCmd := &cobra.Command{
		Use:   "add-address <case> <person-id>",
		Short: "Attach an address",
		Args:  cobra.ExactArgs(2),
		RunE:  runPersonsAddAddress,
	}
	addAddressCmd.Flags().String("street", "", "street name")
	addAddressCmd.Flags().String("number", "", "street number")
	addAddressCmd.Flags().String("locality", "", "city or locality")
	addAddressCmd.Flags().String("state", "", "state or province")
	addAddressCmd.Flags().String("country", "", "country")
	addAddressCmd.Flags().String("zip", "", "postal code")

	removeAddressCmd := &cobra.Command{
		Use:   "remove-address <case> <address-id>",
		Short: "Remove an address by ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore(cmd)
			defer store.Close()
			return store.RemoveAddress(args[0], args[1])
		},
	}

	addJobCmd := &cobra.Command{
		Use:   "add-job <case> <person-id>",
		Short: "Attach an employment record",
		Args:  cobra.ExactArgs(2),
		RunE:  runPersonsAddJob,
	}
	addJobCmd.Flags().String("title", "", "job title")
	addJobCmd.Flags().String("company", "", "employer")
	addJobCmd.Flags().String("start", "", "start date")
	addJobCmd.Flags().String("end", "", "end date")

	removeJobCmd := &cobra.Command{
		Use:   "remove-job <case> <job-id>",
		Short: "Remove an employment record by ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore(cmd)
			defer store.Close()
			return store.RemoveJob(args[0], args[1])
		},
	}

	addSocialCmd := &cobra.Command{
		Use:   "add-social <case> <person-id>",
		Short: "Attach a social profile",
		Args:  cobra.ExactArgs(2),
		RunE:  runPersonsAddSocial,
	}
	addSocialCmd.Flags().String("platform", "", "platform name")
	addSocialCmd.Flags().String("username", "", "profile username")
	addSocialCmd.Flags().String("url", "", "profile URL")

	removeSocialCmd := &cobra.Command{
		Use:   "remove-social <case> <profile-id>",
		Short: "Remove a social profile by ID",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store := openStore(cmd)
			defer store.Close()
			return store.RemoveSocialProfile(args[0], args[1])
		},
	}

	personsCmd.AddCommand(createCmd, listCmd, updateCmd, deleteCmd,
		addNicknameCmd, removeNicknameCmd, addAddressCmd, removeAddressCmd,
		addJobCmd, removeJobCmd, addSocialCmd, removeSocialCmd)
	return personsCmd
}

func addPersonFlags(cmd *cobra.Command) {
	cmd.Flags().String("first-name", "", "first name")
	cmd.Flags().String("last-name", "", "last name")
	cmd.Flags().String("dni", "", "national ID number")
	cmd.Flags().String("birth-date", "", "birth date (ISO 8601)")
	cmd.Flags().String("phone", "", "phone number")
	cmd.Flags().String("email", "", "email address")
}

func runPersonsCreate(cmd *cobra.Command, args []string) error {
	store := openStore(cmd)
	defer store.Close()

	person := domain.Person{}
	applyPersonFlags(cmd, &person)
	nicknames, _ := cmd.Flags().GetStringArray("nickname")
	for _, value := range nicknames {
		person.Nicknames = append(person.Nicknames, domain.Nickname{Value: value})
	}

	created, err := store.CreatePerson(args[0], person)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "person %s created\n", created.ID)
	return nil
}

func runPersonsList(cmd *cobra.Command, args []string) error {
	store := openStore(cmd)
	defer store.Close()

	persons, err := store.ListPersons(args[0])
	if err != nil {
		return err
	}
	if len(persons) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "no persons")
		return nil
	}
	out := cmd.OutOrStdout()
	for _, p := range persons {
		fmt.Fprintf(out, "%s\t%s\n", p.ID, strings.TrimSpace(p.FirstName+" "+p.LastName))
		for _, n := range p.Nicknames {
			fmt.Fprintf(out, "  aka %q (%s)\n", n.Value, n.ID)
		}
		if p.Email != "" {
			fmt.Fprintf(out, "  email: %s\n", p.Email)
		}
		if p.Phone != "" {
			fmt.Fprintf(out, "  phone: %s\n", p.Phone)
		}
		for _, a := range p.Addresses {
			fmt.Fprintf(out, "  address: %s %s, %s, %s (%s)\n", a.Street, a.Number, a.Locality, a.Country, a.ID)
		}
		for _, j := range p.Jobs {
			fmt.Fprintf(out, "  job: %s at %s (%s)\n", j.Title, j.Company, j.ID)
		}
		for _, sp := range p.SocialProfiles {
			fmt.Fprintf(out, "  social: %s/%s (%s)\n", sp.Platform, sp.Username, sp.ID)
		}
	}
	return nil
}

// runPersonsUpdate changes only the fields whose flags were set; everything
// else keeps its stored value.
func runPersonsUpdate(cmd *cobra.Command, args []string) error {
	store := openStore(cmd)
	defer store.Close()

	caseName, personID := args[0], args[1]
	persons, err := store.ListPersons(caseName)
	if err != nil {
		return err
	}
	var current *domain.Person
	for i := range persons {
		if persons[i].ID == personID {
			current = &persons[i]
			break
		}
	}
	if current == nil {
		return fmt.Errorf("person %q does not exist in case %q", personID, caseName)
	}

	applyPersonFlags(cmd, current)
	if err := store.UpdatePerson(caseName, *current); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "person %s updated\n", personID)
	return nil
}

func applyPersonFlags(cmd *cobra.Command, person *domain.Person) {
	set := func(flag string, field *string) {
		if cmd.Flags().Changed(flag) {
			*field, _ = cmd.Flags().GetString(flag)
		}
	}
	set("first-name", &person.FirstName)
	set("last-name", &person.LastName)
	set("dni", &person.DNI)
	set("birth-date", &person.BirthDate)
	set("phone", &person.Phone)
	set("email", &person.Email)
}

func runPersonsDelete(cmd *cobra.Command, args []string) error {
	store := openStore(cmd)
	defer store.Close()
	if err := store.DeletePerson(args[0], args[1]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "person %s deleted\n", args[1])
	return nil
}

func runPersonsAddAddress(cmd *cobra.Command, args []string) error {
	store := openStore(cmd)
	defer store.Close()
	get := func(flag string) string { v, _ := cmd.Flags().GetString(flag); return v }
	id, err := store.AddAddress(args[0], args[1], domain.Address{
		Street:   get("street"),
		Number:   get("number"),
		Locality: get("locality"),
		State:    get("state"),
		Country:  get("country"),
		ZipCode:  get("zip"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "address %s added\n", id)
	return nil
}

func runPersonsAddJob(cmd *cobra.Command, args []string) error {
	store := openStore(cmd)
	defer store.Close()
	get := func(flag string) string { v, _ := cmd.Flags().GetString(flag); return v }
	id, err := store.AddJob(args[0], args[1], domain.Job{
		Title:     get("title"),
		Company:   get("company"),
		DateStart: get("start"),
		DateEnd:   get("end"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "job %s added\n", id)
	return nil
}

func runPersonsAddSocial(cmd *cobra.Command, args []string) error {
	store := openStore(cmd)
	defer store.Close()
	get := func(flag string) string { v, _ := cmd.Flags().GetString(flag); return v }
	id, err := store.AddSocialProfile(args[0], args[1], domain.SocialProfile{
		Platform: get("platform"),
		Username: get("username"),
		URL:      get("url"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "social profile %s added\n", id)
	return nil
}
